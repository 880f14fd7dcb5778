package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 24, parseDuration("24 min per ep"))
	assert.Equal(t, 115, parseDuration("1 hr 55 min"))
	assert.Equal(t, 120, parseDuration("2 hr"))
	assert.Equal(t, 0, parseDuration("Unknown"))
}
