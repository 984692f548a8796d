package rules

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"filesorter/internal/logging"
)

// Resolver chooses the destination folder for a candidate file.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver returns a Resolver that reports script failures to logger.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "resolver")}
}

// Resolve walks set in order and returns the destination of the first rule
// that matches file. Script failures count as no match for that rule.
func (r *Resolver) Resolve(ctx context.Context, file CandidateFile, set *RuleSet) (string, bool) {
	if set == nil || len(set.rules) == 0 {
		return "", false
	}
	folder := cases.Fold()
	ext := folder.String(file.Extension)

	for _, rule := range set.rules {
		switch m := rule.Matcher.(type) {
		case ExtensionEquals:
			if ext != "" && ext == folder.String(m.Extension) {
				return rule.Destination, true
			}
		case ScriptPredicate:
			if dest, ok := r.runScript(ctx, m, file); ok {
				return dest, true
			}
		}
	}
	return "", false
}

func (r *Resolver) runScript(ctx context.Context, m ScriptPredicate, file CandidateFile) (string, bool) {
	dest, err := m.Hook.Destination(ctx, file.Path)
	if err != nil {
		logging.WithContext(ctx, r.logger).Warn("script rule failed",
			logging.String(logging.FieldEventType, "script_error"),
			logging.String("script", m.Name),
			logging.String(logging.FieldSource, file.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run the script by hand against the file"),
			logging.String(logging.FieldImpact, "file treated as unmatched by this rule"),
		)
		return "", false
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", false
	}
	if err := ValidDestination(dest); err != nil {
		logging.WithContext(ctx, r.logger).Warn("script rule returned invalid destination",
			logging.String(logging.FieldEventType, "script_error"),
			logging.String("script", m.Name),
			logging.String(logging.FieldSource, file.Path),
			logging.String(logging.FieldTarget, dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "return a single folder name without separators"),
			logging.String(logging.FieldImpact, "file treated as unmatched by this rule"),
		)
		return "", false
	}
	return dest, true
}
