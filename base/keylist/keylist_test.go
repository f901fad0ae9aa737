// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestList(t *testing.T) {
	kl := New[string, int]()
	kl.Set("Camera.view", 0)
	kl.Set("Camera.proj", 64)
	assert.NoError(t, kl.Add("Camera.eye", 128))
	err := kl.Add("Camera.view", 9)
	assert.Error(t, err)
	var de *DuplicateKeyError[string]
	assert.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.Index)

	assert.Equal(t, 3, kl.Len())
	assert.Equal(t, 64, kl.At("Camera.proj"))
	assert.Equal(t, 2, kl.IndexByKey("Camera.eye"))
	assert.Equal(t, -1, kl.IndexByKey("nope"))
	_, ok := kl.AtTry("nope")
	assert.False(t, ok)

	kl.Set("Camera.view", 1)
	assert.Equal(t, []int{1, 64, 128}, kl.Values)
	assert.Equal(t, []string{"Camera.view", "Camera.proj", "Camera.eye"}, kl.Keys)

	cl := kl.Clone()
	cl.Set("Camera.view", 5)
	assert.Equal(t, 1, kl.At("Camera.view"))
	assert.Equal(t, "{Camera.view: 1, Camera.proj: 64, Camera.eye: 128, }", kl.String())
}

func TestDecodedList(t *testing.T) {
	kl := &List[string, int]{Keys: []string{"a", "b"}, Values: []int{1, 2}}
	assert.Equal(t, 1, kl.IndexByKey("b"))
	assert.Equal(t, 2, kl.At("b"))

	var nl *List[string, int]
	assert.Equal(t, 0, nl.Len())
	assert.Equal(t, -1, nl.IndexByKey("a"))
}
