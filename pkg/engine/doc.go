/*
Package engine declares the boundary toward the external real-time audio
engine. The core never renders audio itself; it binds signal handles to output
channels and lets the engine pull from them at its own cadence.
*/
package engine
