// Package notification turns items into webhook payloads.
//
// Payloads follow the Discord webhook embed shape. Build is a pure function
// over explicit Fields, so concurrent deliveries never share formatter state;
// Formatter adds the parts that need the network (URL and image probing) and
// the configured defaults.
package notification
