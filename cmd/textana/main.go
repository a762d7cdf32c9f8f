// The textana command is an interactive console for the text analysis and
// retrieval engine: load documents, inspect word frequencies, search single
// words with line context, rank documents against keyword sets, and export
// frequency rankings to CSV.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/textanasearch/textana/internal/export"
	"github.com/textanasearch/textana/internal/frequency"
	"github.com/textanasearch/textana/internal/session"
	"github.com/textanasearch/textana/pkg/config"
	apperrors "github.com/textanasearch/textana/pkg/errors"
	"github.com/textanasearch/textana/pkg/logger"
)

type console struct {
	session *session.Session
	reader  *bufio.Reader
	out     *bufio.Writer
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Keep the interactive surface clean; log only warnings and errors.
	logger.Setup("warn", "text")

	c := &console{
		session: session.New(cfg.Loader),
		reader:  bufio.NewReader(os.Stdin),
		out:     bufio.NewWriter(os.Stdout),
	}
	c.run()
}

func (c *console) run() {
	defer c.out.Flush()
	for {
		c.printMenu()
		choice := c.prompt("Your choice: ")
		switch choice {
		case "1":
			c.handleLoad()
		case "2":
			c.handleRecompute()
		case "3":
			c.handleFrequencyDisplay()
		case "4":
			c.handleSearchWord()
		case "5":
			c.handleRetrieve()
		case "6":
			c.handleSaveFrequencies()
		case "7":
			c.printf("Goodbye.\n")
			c.out.Flush()
			return
		default:
			c.printf("Invalid choice, please select a valid option.\n")
		}
	}
}

func (c *console) printMenu() {
	c.printf("\n--- textana ---\n")
	c.printf("1. Load files or directories\n")
	c.printf("2. Recompute word frequencies\n")
	c.printf("3. Show the N most frequent words (corpus or per document)\n")
	c.printf("4. Search a word (shows documents and lines)\n")
	c.printf("5. Retrieve documents matching keywords, ranked\n")
	c.printf("6. Save frequencies to a CSV file\n")
	c.printf("7. Quit\n")
	c.printf("---------------\n")
}

func (c *console) handleLoad() {
	raw := c.prompt("Enter file or directory paths (comma-separated): ")
	paths := splitList(raw, ",")
	if len(paths) == 0 {
		c.printf("No paths entered.\n")
		return
	}
	stats, err := c.session.Load(paths)
	if err != nil {
		c.printError("Load failed", err)
		return
	}
	c.printf("Loaded %d document(s), %d tokens, %d distinct terms.\n",
		stats.Documents, stats.Tokens, stats.Terms)
}

func (c *console) handleRecompute() {
	if err := c.session.Recompute(); err != nil {
		c.printError("Recompute failed", err)
		return
	}
	c.printf("Word frequencies recomputed.\n")
}

func (c *console) handleFrequencyDisplay() {
	if !c.session.Loaded() {
		c.printf("No documents loaded. Choose option 1 first.\n")
		return
	}
	scope := c.prompt("Frequencies for (1) whole corpus or (2) a single document? [1/2]: ")
	switch scope {
	case "1":
		n, ok := c.promptInt("How many top words (N)? ")
		if !ok {
			return
		}
		entries, err := c.session.TopNInCorpus(n)
		if err != nil {
			c.printError("Frequency query failed", err)
			return
		}
		c.printf("\nTop %d words in the corpus:\n", n)
		c.printEntries(entries)
	case "2":
		docs := c.session.Documents()
		c.printf("Available documents:\n")
		for i, doc := range docs {
			c.printf("%d. %s\n", i+1, doc)
		}
		idx, ok := c.promptInt("Select a document number: ")
		if !ok {
			return
		}
		if idx < 1 || idx > len(docs) {
			c.printf("Invalid document number.\n")
			return
		}
		n, ok := c.promptInt("How many top words (N)? ")
		if !ok {
			return
		}
		entries, err := c.session.TopNInDocument(docs[idx-1], n)
		if err != nil {
			c.printError("Frequency query failed", err)
			return
		}
		c.printf("\nTop %d words in %s:\n", n, docs[idx-1])
		c.printEntries(entries)
	default:
		c.printf("Invalid choice.\n")
	}
}

func (c *console) handleSearchWord() {
	if !c.session.Loaded() {
		c.printf("No documents loaded. Choose option 1 first.\n")
		return
	}
	word := c.prompt("Enter the word to search: ")
	occurrences, err := c.session.SearchWord(word)
	if err != nil {
		c.printError("Search failed", err)
		return
	}
	if len(occurrences) == 0 {
		c.printf("No occurrence of %q found.\n", word)
		return
	}
	for _, occ := range occurrences {
		c.printf("\n-- Document: %s --\n", occ.Path)
		for _, line := range occ.Lines {
			c.printf("  Line %d: %s\n", line.Number, line.Text)
		}
	}
	c.printf("Search finished.\n")
}

func (c *console) handleRetrieve() {
	if !c.session.Loaded() {
		c.printf("No documents loaded. Choose option 1 first.\n")
		return
	}
	raw := c.prompt("Enter keywords separated by spaces: ")
	keywords := strings.Fields(raw)
	if len(keywords) == 0 {
		c.printf("No valid keywords entered.\n")
		return
	}
	modeChoice := c.prompt("Mode: (1) OR (at least one keyword) / (2) AND (all keywords)? [1/2]: ")
	var mode session.Mode
	switch modeChoice {
	case "1":
		mode = session.ModeOr
	case "2":
		mode = session.ModeAnd
	default:
		c.printf("Invalid choice, back to menu.\n")
		return
	}
	results, err := c.session.Retrieve(keywords, mode)
	if err != nil {
		c.printError("Retrieval failed", err)
		return
	}
	if len(results) == 0 {
		c.printf("No document matches these keywords.\n")
		return
	}
	c.printf("\nMatching documents (path - score):\n")
	for _, doc := range results {
		c.printf("  %s - score: %d\n", doc.Path, doc.Score)
	}
	c.printf("Retrieval finished.\n")
}

func (c *console) handleSaveFrequencies() {
	if !c.session.Loaded() {
		c.printf("No frequencies computed. Load documents first.\n")
		return
	}
	path := c.prompt("Enter the output path (e.g. frequencies.csv): ")
	if path == "" {
		c.printf("No path entered.\n")
		return
	}
	entries := c.session.CorpusFrequencies()
	if err := export.WriteCSV(path, entries); err != nil {
		c.printError("Save failed", err)
		return
	}
	c.printf("Frequencies saved to %q (%d entries).\n", path, len(entries))
}

func (c *console) printEntries(entries []frequency.Entry) {
	if len(entries) == 0 {
		c.printf("  (no words)\n")
		return
	}
	for _, e := range entries {
		c.printf("  %-20s %d\n", e.Word, e.Count)
	}
}

func (c *console) prompt(label string) string {
	c.printf("%s", label)
	c.out.Flush()
	line, _ := c.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (c *console) promptInt(label string) (int, bool) {
	raw := c.prompt(label)
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.printf("Please enter a valid integer.\n")
		return 0, false
	}
	return n, true
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) printError(prefix string, err error) {
	if errors.Is(err, apperrors.ErrIOFailure) {
		c.printf("%s (I/O): %s\n", prefix, err)
		return
	}
	c.printf("%s: %s\n", prefix, err)
}

func splitList(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
