// Package stt sends framed uploads to a hosted speech-to-text model.
package stt
