// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package command

import "strings"

// StatementComplete reports whether buf ends a statement: it contains a ';'
// outside single quotes, double quotes, dollar quotes and comments.
func StatementComplete(buf string) bool {
	terminated, _ := scan(buf)
	return terminated
}

// SplitScript breaks a script into submissions in order: each meta-command
// line on its own, and the SQL between them as one batch. A backslash line
// inside an unfinished statement stays part of the SQL. Stretches holding only
// whitespace and comments are dropped.
func SplitScript(script string) []string {
	var parts, sql []string
	flush := func() {
		text := strings.TrimSpace(strings.Join(sql, "\n"))
		if terminated, pending := scan(text); terminated || pending {
			parts = append(parts, text)
		}
		sql = sql[:0]
	}
	for _, line := range strings.Split(script, "\n") {
		if IsMeta(line) {
			if _, pending := scan(strings.Join(sql, "\n")); !pending {
				flush()
				parts = append(parts, strings.TrimSpace(line))
				continue
			}
		}
		sql = append(sql, line)
	}
	flush()
	return parts
}

// scan reports whether buf holds a ';' outside quotes and comments, and
// whether anything but whitespace and comments follows the last one. An open
// quote or block comment counts as pending.
func scan(buf string) (terminated, pending bool) {
	const (
		plain = iota
		single
		double
		lineComment
		blockComment
		dollar
	)
	state := plain
	var tag string

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		switch state {
		case plain:
			switch {
			case c == '\'':
				state = single
				pending = true
			case c == '"':
				state = double
				pending = true
			case c == '-' && i+1 < len(buf) && buf[i+1] == '-':
				state = lineComment
				i++
			case c == '/' && i+1 < len(buf) && buf[i+1] == '*':
				state = blockComment
				i++
			case c == ';':
				terminated = true
				pending = false
			case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			case c == '$':
				pending = true
				if end := strings.IndexByte(buf[i+1:], '$'); end >= 0 && validTag(buf[i+1:i+1+end]) {
					tag = buf[i : i+end+2]
					state = dollar
					i += end + 1
				}
			default:
				pending = true
			}
		case single:
			if c == '\'' {
				state = plain
			}
		case double:
			if c == '"' {
				state = plain
			}
		case lineComment:
			if c == '\n' {
				state = plain
			}
		case blockComment:
			if c == '*' && i+1 < len(buf) && buf[i+1] == '/' {
				state = plain
				i++
			}
		case dollar:
			if strings.HasPrefix(buf[i:], tag) {
				state = plain
				i += len(tag) - 1
			}
		}
	}
	if state != plain && state != lineComment {
		pending = true
	}
	return terminated, pending
}

func validTag(s string) bool {
	for i, c := range s {
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
