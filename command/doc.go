// Package command holds the JVC D-ILA command catalogue and wire vocabulary:
// a closed set of command groups, each mapping symbolic values to the ASCII
// payload bytes the projector understands, plus the frame headers and session
// tokens shared by the client and the emulator.
//
// A symbolic command is a group name optionally followed by a dash and a
// value, for example "power-on", "picture_mode-user1" or "signal". A command
// with a value is a write (operation); a command without one is a read
// (reference), except for write-only groups that take no value such as
// "nullcmd".
//
// Tables are validated when they are built, so a malformed symbolic command is
// rejected by [Table.Parse] before any network I/O happens.
package command
