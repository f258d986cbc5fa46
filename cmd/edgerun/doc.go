// Command edgerun exercises the runtime from the shell: it loads a
// configuration, wires demo backends, and runs voice turns over WAV
// files.
package main
