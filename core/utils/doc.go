// Package utils provides small value conversion helpers shared by the exchange
// packages: decoding remote payloads to text and parsing loosely typed request values.
package utils
