// Package script provides the user-supplied hooks behind script rules.
//
// A hook receives the path of a candidate file and answers with a folder
// name, or with nothing when it does not claim the file. Hooks can be Lua
// chunks (the path is passed as the chunk argument and the chunk returns a
// string or nil), CEL expressions over path, name, and ext, external
// executables that print the folder on stdout, or plain Go functions.
package script
