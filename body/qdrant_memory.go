package body

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// qdrantMemoryVectorSize is the dimensionality of the pseudo-vector used to
// address points by id; recall needs exact-id lookup, not similarity, but
// Qdrant's points API only exposes reads through search.
const qdrantMemoryVectorSize = 16

// QdrantMemory implements MemoryStore against a Qdrant collection. Each
// memorized_parameter sign id is embedded into a deterministic pseudo-vector
// so recall-by-id is expressed as a nearest-neighbor search that always
// lands on the point upserted under the same id.
type QdrantMemory struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantMemory dials host:port. The collection is created lazily on the
// first Remember.
func NewQdrantMemory(host string, port int, collection string) (*QdrantMemory, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("body: connecting to qdrant: %w", err)
	}
	return &QdrantMemory{client: client, collection: collection}, nil
}

// Close releases the underlying connection.
func (m *QdrantMemory) Close() error {
	return m.client.Close()
}

func (m *QdrantMemory) ensureCollection(ctx context.Context) error {
	exists, err := m.client.CollectionExists(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("body: checking qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	return m.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: m.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     qdrantMemoryVectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func idVector(id string) []float32 {
	sum := sha256.Sum256([]byte(id))
	vec := make([]float32, qdrantMemoryVectorSize)
	for i := range vec {
		vec[i] = float32(sum[i]) / 255
	}
	return vec
}

// Remember upserts id's value, creating the backing collection on first use.
func (m *QdrantMemory) Remember(ctx context.Context, id, value string) error {
	if err := m.ensureCollection(ctx); err != nil {
		return err
	}

	idVal, err := qdrant.NewValue(id)
	if err != nil {
		return fmt.Errorf("body: encoding memory id: %w", err)
	}
	valueVal, err := qdrant.NewValue(value)
	if err != nil {
		return fmt.Errorf("body: encoding memory value: %w", err)
	}

	_, err = m.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: m.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(idVector(id)...),
			Payload: map[string]*qdrant.Value{"param_id": idVal, "value": valueVal},
		}},
	})
	if err != nil {
		return fmt.Errorf("body: qdrant remember %q: %w", id, err)
	}
	return nil
}

// Recall looks up id, returning found=false if the collection doesn't exist
// yet or holds no point for id.
func (m *QdrantMemory) Recall(ctx context.Context, id string) (string, bool, error) {
	exists, err := m.client.CollectionExists(ctx, m.collection)
	if err != nil {
		return "", false, fmt.Errorf("body: checking qdrant collection: %w", err)
	}
	if !exists {
		return "", false, nil
	}

	result, err := m.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: m.collection,
		Vector:         idVector(id),
		Limit:          1,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("body: qdrant recall %q: %w", id, err)
	}
	if len(result.Result) == 0 {
		return "", false, nil
	}

	point := result.Result[0]
	paramID, ok := point.Payload["param_id"]
	if !ok || paramID.GetStringValue() != id {
		return "", false, nil
	}
	value, ok := point.Payload["value"]
	if !ok {
		return "", false, nil
	}
	return value.GetStringValue(), true, nil
}
