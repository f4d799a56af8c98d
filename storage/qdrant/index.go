package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hoardhq/hoard/core"
	"github.com/hoardhq/hoard/storage"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// searchOversample bounds how many raw points one query fetches before
// per-content grouping. Grouping keeps at most one chunk per content item,
// so the raw result set must be larger than the final one.
const searchOversample = 256

// ChunkIndex implements storage.ChunkIndex using a Qdrant collection.
// One point per chunk; the point ID is the chunk ID and the payload
// carries what FindBestMatches needs to build a ChunkMatch.
type ChunkIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	logger      *slog.Logger
}

var _ storage.ChunkIndex = (*ChunkIndex)(nil)

// NewChunkIndex connects to Qdrant and ensures the collection exists with
// the given vector size and cosine distance.
func NewChunkIndex(ctx context.Context, host string, port int, collection string, vectorSize uint64) (*ChunkIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}

	x := &ChunkIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		logger:      slog.Default(),
	}

	if err := x.ensureCollection(ctx, vectorSize); err != nil {
		conn.Close()
		return nil, err
	}

	return x, nil
}

// ensureCollection creates the collection if it is missing.
func (x *ChunkIndex) ensureCollection(ctx context.Context, vectorSize uint64) error {
	list, err := x.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}
	for _, c := range list.Collections {
		if c.Name == x.collection {
			return nil
		}
	}

	x.logger.Info("creating qdrant collection", "collection", x.collection, "vectorSize", vectorSize)
	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

// IndexChunks upserts one point per chunk. Chunks without vectors are
// skipped.
func (x *ChunkIndex) IndexChunks(ctx context.Context, chunks ...*core.Chunk) error {
	points := make([]*pb.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			continue
		}
		payload := map[string]*pb.Value{
			"content_id": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(chunk.ContentId)}},
			"text":       {Kind: &pb.Value_StringValue{StringValue: chunk.Text}},
			"section":    {Kind: &pb.Value_StringValue{StringValue: chunk.Section}},
		}
		points = append(points, &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(chunk.Id)}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: chunk.Vector}}},
			Payload: payload,
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// RemoveContent deletes all points of a content item by payload filter.
func (x *ChunkIndex) RemoveContent(ctx context.Context, contentID core.ID) error {
	_, err := x.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: x.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{{
						ConditionOneOf: &pb.Condition_Field{
							Field: &pb.FieldCondition{
								Key: "content_id",
								Match: &pb.Match{
									MatchValue: &pb.Match_Integer{Integer: int64(contentID)},
								},
							},
						},
					}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// FindBestMatches queries the collection and keeps the best-scoring chunk
// per content item. The raw query oversamples because several chunks of
// the same item tend to rank together.
func (x *ChunkIndex) FindBestMatches(ctx context.Context, vector []float32, minSimilarity float32) ([]*core.ChunkMatch, error) {
	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: x.collection,
		Vector:         vector,
		Limit:          searchOversample,
		ScoreThreshold: &minSimilarity,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrIndexUnavailable, err)
	}

	best := make(map[core.ID]*core.ChunkMatch)
	for _, pt := range resp.Result {
		if pt.Score <= minSimilarity {
			continue
		}
		contentID := core.ID(pt.Payload["content_id"].GetIntegerValue())
		if prev, ok := best[contentID]; ok && prev.Score >= pt.Score {
			continue
		}
		best[contentID] = &core.ChunkMatch{
			ContentId: contentID,
			ChunkId:   core.ID(pt.Id.GetNum()),
			Text:      pt.Payload["text"].GetStringValue(),
			Section:   pt.Payload["section"].GetStringValue(),
			Score:     pt.Score,
		}
	}

	results := make([]*core.ChunkMatch, 0, len(best))
	for _, match := range best {
		results = append(results, match)
	}
	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	return results, nil
}

// Close closes the gRPC connection.
func (x *ChunkIndex) Close() error {
	return x.conn.Close()
}
