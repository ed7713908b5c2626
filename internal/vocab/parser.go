// Package vocab imports vocabulary word lists from local directories and git
// repositories into the card store.
package vocab

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
)

const (
	wordPrefix        = "W:"
	translationPrefix = "T:"
	examplePrefix     = "E:"
)

type state int

const (
	seeking state = iota
	readingWord
	readingTranslation
	readingExample
)

// ParseFile reads a word-list file from the given path and extracts all words.
func ParseFile(path string) ([]domain.Word, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all words. An entry is a block
// of W:/T:/E: lines; `---` or a new W: line starts the next entry.
func Parse(r io.Reader) ([]domain.Word, error) {
	scanner := bufio.NewScanner(r)
	var words []domain.Word
	var current domain.Word
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingWord:
			current.Text = content
		case readingTranslation:
			current.Translation = content
		case readingExample:
			current.Example = content
		}
		block = nil
	}

	finishWord := func() {
		flushBlock()
		if current.Text != "" {
			words = append(words, current)
		}
		current = domain.Word{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		isW := strings.HasPrefix(line, wordPrefix)
		isT := strings.HasPrefix(line, translationPrefix)
		isE := strings.HasPrefix(line, examplePrefix)

		if line == "---" {
			finishWord()
			continue
		}

		if isW || isT || isE {
			flushBlock()

			var prefix string
			switch {
			case isW:
				if currentState != seeking { // A new word always starts a new entry
					finishWord()
				}
				currentState = readingWord
				prefix = wordPrefix
			case isT:
				currentState = readingTranslation
				prefix = translationPrefix
			case isE:
				currentState = readingExample
				prefix = examplePrefix
			}

			content := strings.TrimPrefix(line, prefix)
			if strings.HasPrefix(content, " ") {
				content = content[1:]
			}
			block = append(block, content)
		} else if currentState != seeking {
			block = append(block, line)
		}
	}

	finishWord() // Finish the very last entry in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return words, nil
}
