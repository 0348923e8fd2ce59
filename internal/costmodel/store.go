package costmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ArtifactName is the stable storage key of the cost model.
const ArtifactName = "cost_model"

var (
	ErrNoModel      = errors.New("no cost model trained")
	ErrCorruptModel = errors.New("cost model artifact is corrupt")
)

// Artifact is the persisted form of a trained model.
type Artifact struct {
	ID           string     `json:"id"`
	TrainedAt    time.Time  `json:"trained_at"`
	FeatureNames []string   `json:"feature_names"`
	Model        *Model     `json:"model"`
	Evaluation   Evaluation `json:"evaluation"`
}

// NewArtifact wraps a freshly trained model.
func NewArtifact(m *Model, ev Evaluation, trainedAt time.Time) *Artifact {
	return &Artifact{
		ID:           uuid.NewString(),
		TrainedAt:    trainedAt,
		FeatureNames: m.Pipeline.FeatureNames(),
		Model:        m,
		Evaluation:   ev,
	}
}

// Validate checks that the artifact can serve predictions.
func (a *Artifact) Validate() error {
	if a.Model == nil || a.Model.Pipeline == nil || a.Model.Regressor == nil {
		return ErrCorruptModel
	}
	if !a.Model.Pipeline.valid() || len(a.Model.Regressor.Coefficients) != a.Model.Pipeline.Width() {
		return ErrCorruptModel
	}
	return nil
}

// Store persists the cost model. Load returns ErrNoModel when nothing has
// been trained yet.
type Store interface {
	Save(ctx context.Context, a *Artifact) error
	Load(ctx context.Context) (*Artifact, error)
}

// EncodeArtifact and DecodeArtifact are the codec shared by every Store.
func EncodeArtifact(a *Artifact) ([]byte, error) {
	return json.Marshal(a)
}

func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// FileStore keeps the artifact as a JSON file. Writes go to a temporary
// file in the same directory which is then renamed over the old artifact,
// so readers never observe a partial write.
type FileStore struct {
	Dir string
}

// NewFileStore ensures dir exists.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.Dir, ArtifactName+".json")
}

// Save atomically replaces the stored artifact.
func (s *FileStore) Save(ctx context.Context, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeArtifact(a)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+ArtifactName+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, s.path()); err != nil {
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads the stored artifact.
func (s *FileStore) Load(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoModel
		}
		return nil, fmt.Errorf("read model: %w", err)
	}
	return DecodeArtifact(data)
}
