// Package web holds the embedded HTML pages for the converter: the
// login form and the upload page. Templates are compiled once at
// startup; there is no on-disk static directory to deploy.
package web
