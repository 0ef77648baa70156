package metasync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"video_digest/internal/model"
)

// configFile is the YAML layout of an import or export. Field names match
// the JSON columns of the config table.
type configFile struct {
	Configs []configEntry `json:"configs"`
}

type configEntry struct {
	User       model.User       `json:"user"`
	Tracks     []model.Track    `json:"tracks"`
	Providers  model.Providers  `json:"providers"`
	Progresses []model.Progress `json:"progresses,omitempty"`
}

// ParseConfigs decodes a YAML config file. The document goes through JSON
// so the model's JSON rules apply: single strings for id lists, tagged
// providers and unknown provider types rejected.
func ParseConfigs(r io.Reader) ([]model.DigestConfig, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	var f configFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode configs: %w", err)
	}

	out := make([]model.DigestConfig, 0, len(f.Configs))
	for i, c := range f.Configs {
		if len(c.User.Email) == 0 && len(c.User.TelegramChatIDs) == 0 {
			return nil, fmt.Errorf("config %d: user has no email or chat", i+1)
		}
		out = append(out, model.DigestConfig{
			User:       c.User,
			Tracks:     c.Tracks,
			Providers:  c.Providers,
			Progresses: c.Progresses,
		})
	}
	return out, nil
}

// Import stores every config of a YAML file and returns the new row ids.
func (s *Syncer) Import(ctx context.Context, r io.Reader) ([]int64, error) {
	configs, err := ParseConfigs(r)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(configs))
	for i := range configs {
		if err := s.store.CreateConfig(ctx, &configs[i]); err != nil {
			return ids, fmt.Errorf("create config %d: %w", i+1, err)
		}
		ids = append(ids, configs[i].ID)
	}
	s.log.Info("imported configs", "count", len(ids))
	return ids, nil
}

// Export writes every stored config as YAML.
func (s *Syncer) Export(ctx context.Context, w io.Writer) error {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list configs: %w", err)
	}
	f := configFile{Configs: make([]configEntry, 0, len(configs))}
	for _, c := range configs {
		f.Configs = append(f.Configs, configEntry{
			User:       c.User,
			Tracks:     c.Tracks,
			Providers:  c.Providers,
			Progresses: c.Progresses,
		})
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode configs: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("convert configs: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
