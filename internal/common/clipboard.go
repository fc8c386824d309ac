package common

import (
	"github.com/atotto/clipboard"
)

// SetClipboardValue copies value to the system clipboard.
func SetClipboardValue(value string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(value)
}

type clipboardError string

func (e clipboardError) Error() string { return string(e) }

const errClipboardUnsupported = clipboardError("no clipboard utility available (install xclip, xsel or wl-clipboard)")
