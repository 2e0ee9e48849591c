// Package views is the default set of page templates for blogcontent. Sites
// that want their own markup supply a different blogcontent.ViewFuncs.
package views

//go:generate templ generate

import "github.com/eringen/blogcontent"

// Default returns the built-in templates.
func Default() blogcontent.ViewFuncs {
	return blogcontent.ViewFuncs{
		BlogIndex:      BlogIndex,
		BlogList:       BlogList,
		Post:           Post,
		Page:           Page,
		AdminLogin:     AdminLogin,
		AdminDashboard: AdminDashboard,
		NotFound:       NotFound,
		ServerError:    ServerError,
	}
}
