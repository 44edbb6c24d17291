// Command hashpw generates a bcrypt hash for WEB_CONVERTER_PASSWORD so
// the plain password never has to appear in the environment.
package main
