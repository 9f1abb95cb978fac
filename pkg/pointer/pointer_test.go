// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/cinescript/pkg/pointer"
)

func TestToVal(t *testing.T) {
	takes := pointer.To(3)

	assert.Equal(t, 3, pointer.Val(takes))
	assert.Equal(t, 0, pointer.Val[int](nil))

	// Each call yields an independent pointer
	assert.NotSame(t, pointer.To(3), takes)
}
