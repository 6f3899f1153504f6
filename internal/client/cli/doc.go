// Package cli implements the devtv command-line client: register, login,
// whoami, logout and status, built on cobra.
//
// The session token returned at sign-in is kept in a local sqlite database
// under the data directory, so later invocations act as the same user until
// logout or server-side expiry.
package cli
