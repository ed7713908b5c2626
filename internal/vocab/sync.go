package vocab

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/storage"
)

// Syncer reconciles configured word sources with the card store. Every new
// word gets two cards (normal and inverted) and fresh scheduling state;
// words that disappear from their source are removed.
type Syncer struct {
	db       *storage.DB
	params   *srs.Params
	reposDir string
}

func NewSyncer(db *storage.DB, params *srs.Params, reposDir string) *Syncer {
	if reposDir == "" {
		reposDir = "repos"
	}
	return &Syncer{db: db, params: params, reposDir: reposDir}
}

// IsGitSource reports whether a source path looks like a git remote.
func IsGitSource(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// RunSync iterates over all sources and reconciles them. Failures on one
// source are logged and do not stop the others.
func (s *Syncer) RunSync(ctx context.Context) error {
	slog.Info("starting sync process for all sources")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == "git" {
			localRepoPath, err := gitURLToLocalPath(s.reposDir, source.Path)
			if err != nil {
				slog.Error("error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := syncGitRepo(source.Path, localRepoPath); err != nil {
				slog.Error("error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			scanPath = localRepoPath
		}

		s.reconcileSource(ctx, source, scanPath)
	}
	slog.Info("sync process complete")
	return nil
}

func (s *Syncer) reconcileSource(ctx context.Context, source storage.Source, scanPath string) {
	var parsed, inserted int
	var parseErrors []error
	foundHashes := make(map[string]bool)

	walkErr := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileWords, parseErr := ParseFile(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, word := range fileWords {
			word.Hash = Hash(word)
			parsed++
			foundHashes[word.Hash] = true

			existing, findErr := s.db.FindWordByHash(ctx, word.Hash)
			if findErr != nil {
				parseErrors = append(parseErrors, fmt.Errorf("db check for %s: %w", word.Hash, findErr))
				continue
			}
			if existing != nil {
				continue
			}

			slog.Info("new word found, inserting", "hash", word.Hash)
			if insertErr := s.insertWord(ctx, word, source.ID); insertErr != nil {
				parseErrors = append(parseErrors, fmt.Errorf("db insert for %s: %w", word.Hash, insertErr))
				continue
			}
			inserted++
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking directory", "path", scanPath, "error", walkErr)
		return
	}

	dbWords, err := s.db.GetWordsBySourceID(ctx, source.ID)
	if err != nil {
		slog.Error("error getting words for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, dbWord := range dbWords {
		if _, found := foundHashes[dbWord.Hash]; !found {
			slog.Info("orphaned word, deleting", "hash", dbWord.Hash)
			orphaned++
			if err := s.db.DeleteWordByHash(ctx, dbWord.Hash); err != nil {
				slog.Warn("failed to delete orphaned word", "hash", dbWord.Hash, "error", err)
			}
		}
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_words", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(parseErrors),
	)
}

// insertWord stores a word with both card faces and their initial states.
func (s *Syncer) insertWord(ctx context.Context, word domain.Word, sourceID int64) error {
	wordID, err := s.db.InsertWord(ctx, word, sourceID)
	if err != nil {
		return err
	}
	for _, cardType := range []domain.CardType{domain.CardTypeNormal, domain.CardTypeInverted} {
		cardID, err := s.db.InsertCard(ctx, wordID, cardType)
		if err != nil {
			return err
		}
		if err := s.db.InsertMemoryState(ctx, srs.NewMemoryState(cardID, s.params)); err != nil {
			return err
		}
	}
	return nil
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
