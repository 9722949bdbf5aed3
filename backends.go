// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	// Registers the dav1d backend with codec.DefaultRegistry.
	_ "github.com/ik5/avifdec/codec/dav1d"
)
