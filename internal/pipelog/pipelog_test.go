package pipelog

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_PrefixesWithStageName(t *testing.T) {
	logger := New("source")
	assert.Equal(t, "[source] ", logger.Prefix())
}

func TestBanner_EmptyHeaderIsPlainRule(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	Banner(logger, "")
	assert.Equal(t, strings.Repeat("-", 80)+"\n", buf.String())
}

func TestBanner_CentersHeaderWithinWidth(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	Banner(logger, "batch report")
	out := strings.TrimSuffix(buf.String(), "\n")
	assert.Contains(t, out, " batch report ")
	assert.Equal(t, 80, len(out))
}
