// Package script implements a small line-oriented program format used as a
// metered workload. Every statement is one countable unit: the interpreter
// calls a step hook before executing it, the way an instrumented binary
// reports each source line.
//
//	# comments and blank lines are not countable
//	say hello        appends "hello" to the program output
//	nop              does nothing
//	repeat 3         runs the block 3 times
//	  ...
//	end
//	untracked        runs the block with the gate paused
//	  ...
//	end
package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

type op int

const (
	opSay op = iota
	opNop
	opRepeat
	opUntracked
)

type stmt struct {
	op   op
	line int
	text string
	n    int
	body []stmt
}

// Program is a parsed script.
type Program struct {
	Name string
	body []stmt
}

// Statements returns the number of countable statements in the source.
func (p *Program) Statements() int {
	return countStmts(p.body)
}

func countStmts(body []stmt) int {
	n := len(body)
	for i := range body {
		n += countStmts(body[i].body)
	}
	return n
}

// ParseError reports a malformed line.
type ParseError struct {
	Name string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
}

// Parse reads a program from r. name is used in error messages.
func Parse(name string, r io.Reader) (*Program, error) {
	root := &stmt{}
	stack := []*stmt{root}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, rest := line, ""
		if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
			word, rest = line[:i], strings.TrimSpace(line[i:])
		}
		top := stack[len(stack)-1]
		fail := func(format string, args ...any) error {
			return &ParseError{Name: name, Line: lineNo, Msg: fmt.Sprintf(format, args...)}
		}

		switch word {
		case "say":
			top.body = append(top.body, stmt{op: opSay, line: lineNo, text: rest})
		case "nop":
			if rest != "" {
				return nil, fail("nop takes no argument")
			}
			top.body = append(top.body, stmt{op: opNop, line: lineNo})
		case "repeat":
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return nil, fail("repeat needs a non-negative count, got %q", rest)
			}
			stack = append(stack, &stmt{op: opRepeat, line: lineNo, n: n})
		case "untracked":
			if rest != "" {
				return nil, fail("untracked takes no argument")
			}
			stack = append(stack, &stmt{op: opUntracked, line: lineNo})
		case "end":
			if len(stack) == 1 {
				return nil, fail("end without open block")
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.body = append(parent.body, *closed)
		default:
			return nil, fail("unknown statement %q", word)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("script: read %s: %w", name, err)
	}
	if len(stack) > 1 {
		open := stack[len(stack)-1]
		return nil, &ParseError{Name: name, Line: open.line, Msg: "block not closed with end"}
	}
	return &Program{Name: name, body: root.body}, nil
}

// ParseString is Parse over a string.
func ParseString(name, src string) (*Program, error) {
	return Parse(name, strings.NewReader(src))
}

// Load parses the file at path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(path, f)
}
