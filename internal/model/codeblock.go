// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"regexp"
	"strings"
)

// CodeBlock is one fenced block from a markdown message.
type CodeBlock struct {
	Language string
	Code     string
	// Start and End are byte offsets of the whole fence in the content.
	Start int
	End   int
}

var fenceRe = regexp.MustCompile("```([\\w+#.-]*)[ \\t]*\\r?\\n([\\s\\S]*?)```")

// ExtractCodeBlocks returns the fenced code blocks of content in order.
// An unterminated fence is ignored.
func ExtractCodeBlocks(content string) []CodeBlock {
	matches := fenceRe.FindAllStringSubmatchIndex(content, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(content[m[2]:m[3]]),
			Code:     strings.TrimRight(content[m[4]:m[5]], "\r\n"),
			Start:    m[0],
			End:      m[1],
		})
	}
	return blocks
}

// CodeBlocks returns the fenced code blocks of the message content.
func (m Message) CodeBlocks() []CodeBlock {
	return ExtractCodeBlocks(m.Content)
}

// LastCodeBlock returns the final code block of the most recent assistant
// message in l that has one.
func (l List) LastCodeBlock() (CodeBlock, bool) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].Role != RoleAssistant {
			continue
		}
		if blocks := l.items[i].CodeBlocks(); len(blocks) > 0 {
			return blocks[len(blocks)-1], true
		}
	}
	return CodeBlock{}, false
}
