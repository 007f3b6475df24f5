package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/krush/market-core/internal/core/domain"
)

func TestInsertRoomError_DuplicateKeyIsConflict(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: krush.chat_rooms index: " + roomKeyIndex,
	}}}
	if err := insertRoomError(dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate key: got %v, want ErrConflict", err)
	}

	other := errors.New("connection reset")
	err := insertRoomError(other)
	if errors.Is(err, domain.ErrConflict) || !errors.Is(err, other) {
		t.Fatalf("other failure: got %v", err)
	}
}

func TestRoomIndexes_UniqueRoomKey(t *testing.T) {
	idx := roomIndexes()[0]

	keys, ok := idx.Keys.(bson.D)
	if !ok {
		t.Fatalf("keys type %T", idx.Keys)
	}
	want := []string{"product_id", "buyer_id", "seller_id"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i, k := range want {
		if keys[i].Key != k {
			t.Fatalf("key %d = %q, want %q", i, keys[i].Key, k)
		}
	}
	if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
		t.Fatal("room key index must be unique")
	}
	if idx.Options.Name == nil || *idx.Options.Name != roomKeyIndex {
		t.Fatalf("index name = %v", idx.Options.Name)
	}
}

func TestToggleLikePipeline_Shape(t *testing.T) {
	uid := primitive.NewObjectID()
	pipeline := toggleLikePipeline(uid)
	if len(pipeline) != 1 {
		t.Fatalf("expected a single stage, got %d", len(pipeline))
	}

	stage := pipeline[0]
	if len(stage) != 1 || stage[0].Key != "$set" {
		t.Fatalf("stage = %v", stage)
	}
	set := stage[0].Value.(bson.D)
	if len(set) != 1 || set[0].Key != "likes" {
		t.Fatalf("$set = %v", set)
	}

	cond := set[0].Value.(bson.D)
	if cond[0].Key != "$cond" {
		t.Fatalf("expected $cond, got %q", cond[0].Key)
	}
	branches := cond[0].Value.(bson.A)
	if len(branches) != 3 {
		t.Fatalf("$cond needs if/then/else, got %d", len(branches))
	}

	op := func(v any) (string, bson.A) {
		d := v.(bson.D)
		return d[0].Key, d[0].Value.(bson.A)
	}

	name, args := op(branches[0])
	if name != "$in" || args[0] != uid {
		t.Fatalf("condition = %s %v", name, args)
	}
	name, args = op(branches[1])
	if name != "$setDifference" || args[1].(bson.A)[0] != uid {
		t.Fatalf("liked branch must remove the user as a set, got %s %v", name, args)
	}
	name, args = op(branches[2])
	if name != "$concatArrays" || args[1].(bson.A)[0] != uid {
		t.Fatalf("unliked branch must append the user once, got %s %v", name, args)
	}

	// Missing like-sets are treated as empty in every branch.
	for i := range branches {
		_, args := op(branches[i])
		source := args[1]
		if i > 0 {
			source = args[0]
		}
		if n, _ := op(source); n != "$ifNull" {
			t.Fatalf("branch %d reads likes without $ifNull", i)
		}
	}

	if _, err := bson.Marshal(stage); err != nil {
		t.Fatalf("pipeline stage does not encode: %v", err)
	}
}
