// Package all exists solely to trigger backend registration via import
// side-effects. Import this package once in the cmd layer:
//
//	import _ "github.com/sanix-darker/localreview/internal/provider/all"
package all

import (
	_ "github.com/sanix-darker/localreview/internal/provider/ollama"
)
