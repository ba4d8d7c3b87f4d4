package zookeeper

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceOrdering(t *testing.T) {
	// protected 节点的 guid 前缀是随机的，排序必须只看序号
	children := []string{
		"_c_f3b1e2a4-lock-0000000012",
		"_c_0a9d77c1-lock-0000000010",
		"_c_99999999-lock-0000000011",
	}
	sort.Slice(children, func(i, j int) bool {
		return sequenceOf(children[i]) < sequenceOf(children[j])
	})
	assert.Equal(t, "_c_0a9d77c1-lock-0000000010", children[0])
	assert.Equal(t, "_c_99999999-lock-0000000011", children[1])
	assert.Equal(t, "_c_f3b1e2a4-lock-0000000012", children[2])
}

func TestSequenceOf_Short(t *testing.T) {
	assert.Equal(t, "abc", sequenceOf("abc"))
}
