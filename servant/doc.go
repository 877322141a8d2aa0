// File: servant/doc.go
// Package servant implements the per-component cooperative event loop
// (spec.md §4, §6): an unbounded priority queue of tagged-union
// Messages, drained up to maxEvents at a time by (*Servant).Poll
// without ever blocking the host's scheduling loop.
//
// Three priority bands mirror the command/buffer/bulk split of the
// OpenMAX IL dispatch rules: urgent (StateSet, Flush, PortDisable,
// PortEnable, MarkBuffer), normal (pluggable events, buffers-ready),
// and bulk (ETB/FTB, empty/fill-buffer-done callbacks). Each pop takes
// from urgent before normal before bulk, strictly: a lower band is
// served only while every higher band is empty.
package servant
