// Command reaperfx drives REAPER from the terminal: check the bridge, list
// tracks, and run a video through a REAPER track's effects chain.
package main
