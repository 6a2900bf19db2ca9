package artifacts

import (
	"context"
	"fmt"
	"os"

	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/credit/model"
)

const (
	SchemaArtifact = "feature_names"
	ModelArtifact  = "credit_model"
)

// LoadSchema reads the ordered feature-name list from path.
func LoadSchema(path string) (features.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return features.Schema{}, errors.NewArtifactLoadFailedError(SchemaArtifact, err)
	}
	schema, err := features.ParseSchema(data)
	if err != nil {
		return features.Schema{}, errors.NewArtifactLoadFailedError(SchemaArtifact, err)
	}
	return schema, nil
}

// LoadForest reads a tree-ensemble artifact from path and binds it to schema.
func LoadForest(path string, schema features.Schema) (*model.Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewArtifactLoadFailedError(ModelArtifact, err)
	}
	forest, err := model.ParseForest(data, schema)
	if err != nil {
		return nil, errors.NewArtifactLoadFailedError(ModelArtifact, err)
	}
	return forest, nil
}

// Open ensures and loads the schema, then builds the configured model. The
// model artifact is only needed for the "forest" kind.
func (s *Store) Open(ctx context.Context, ac config.ArtifactsConfig, mc config.ModelConfig) (features.Schema, model.Model, error) {
	schemaPath, err := s.Ensure(ctx, Artifact{Name: SchemaArtifact, Path: ac.Schema.Path, URL: ac.Schema.URL})
	if err != nil {
		return features.Schema{}, nil, err
	}
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return features.Schema{}, nil, err
	}

	switch mc.Kind {
	case config.ModelKindRemote:
		s.log.Info("Using remote model", map[string]interface{}{"features": schema.Len()})
		return schema, model.NewRemoteModel(mc.Endpoint, config.GetDuration(mc.Timeout)), nil
	case config.ModelKindForest, "":
		modelPath, err := s.Ensure(ctx, Artifact{Name: ModelArtifact, Path: ac.Model.Path, URL: ac.Model.URL})
		if err != nil {
			return features.Schema{}, nil, err
		}
		forest, err := LoadForest(modelPath, schema)
		if err != nil {
			return features.Schema{}, nil, err
		}
		s.log.Info("Loaded forest model", map[string]interface{}{"trees": forest.Trees(), "features": schema.Len()})
		return schema, forest, nil
	default:
		return features.Schema{}, nil, fmt.Errorf("unknown model kind %q", mc.Kind)
	}
}
