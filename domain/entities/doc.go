// Package entities provides core domain entities for the script host.
// These are plain data types shared by the loader, validators and the host context.
package entities
