// Package theme handles CSS loading and hot-reload for voxshell surfaces.
// It supports loading themes from ~/.config/voxshell/themes/ and provides
// embedded themes that keep transparent surfaces free of window chrome.
package theme
