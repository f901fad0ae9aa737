// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgs(t *testing.T) {
	args, err := Args(`-O3 "-D NAME=1" --flag`)
	assert.NoError(t, err)
	assert.Equal(t, []string{"-O3", "-D NAME=1", "--flag"}, args)

	args, err = Args("   ")
	assert.NoError(t, err)
	assert.Nil(t, args)

	_, err = Args(`"unterminated`)
	assert.Error(t, err)
}

func TestPrintOnly(t *testing.T) {
	echo := &bytes.Buffer{}
	c := Silent()
	c.PrintOnly = true
	c.Echo = echo
	assert.NoError(t, c.Run("this-tool-does-not-exist", "-x"))
	assert.Equal(t, "this-tool-does-not-exist -x\n", echo.String())
}

func TestOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	c := Silent().SetEnv("SHADER_GREETING", "hello")
	out, err := c.Output("sh", "-c", "echo $SHADER_GREETING")
	assert.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = c.CombinedOutput("sh", "-c", "echo oops 1>&2; exit 3")
	assert.Error(t, err)
	assert.True(t, CmdRan(err))
	assert.True(t, strings.Contains(out, "oops"))
}

func TestNotFound(t *testing.T) {
	ran, err := Silent().Exec("this-tool-does-not-exist")
	assert.Error(t, err)
	assert.False(t, ran)
}
