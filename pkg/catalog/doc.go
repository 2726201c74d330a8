// Package catalog loads the event catalog, normalizes its dates and splits
// events into upcoming and previous ones.
package catalog
