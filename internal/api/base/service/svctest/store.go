// Package svctest cung cấp MemoryStore: một triển khai BaseServiceMongo trên
// map trong bộ nhớ, dùng cho unit test các domain service mà không cần MongoDB.
//
// Document được giữ dưới dạng map thô nên test có thể seed dữ liệu "bẩn"
// (thiếu field, parentId gãy) mà struct model không biểu diễn được.
// Chỉ hỗ trợ tập filter/update operator mà các domain service thực sự dùng:
// so khớp field trực tiếp, $in, $exists, $set, $inc, $unset.
package svctest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "folk_academy/internal/api/base/models"
	basesvc "folk_academy/internal/api/base/service"
	"folk_academy/internal/common"
)

// MemoryStore giả lập một collection MongoDB trong bộ nhớ
type MemoryStore[T any] struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]map[string]interface{}
}

// NewMemoryStore tạo store rỗng
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		docs: make(map[primitive.ObjectID]map[string]interface{}),
	}
}

// PutRaw chèn một document thô, trả về id đã gán.
// Dùng để seed dữ liệu không biểu diễn được bằng model (ví dụ thiếu isActive).
func (s *MemoryStore[T]) PutRaw(doc map[string]interface{}) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
	}

	stored := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id

	s.docs[id] = stored
	return id
}

// Doc trả về bản sao document thô theo id (nil nếu không tồn tại)
func (s *MemoryStore[T]) Doc(id primitive.ObjectID) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	copied := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		copied[k] = v
	}
	return copied
}

// Len trả về số document đang có trong store
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// =========================================
// BaseServiceMongo
// =========================================

var _ basesvc.BaseServiceMongo[struct{}] = (*MemoryStore[struct{}])(nil)

func (s *MemoryStore[T]) InsertOne(ctx context.Context, data T) (T, error) {
	var zero T

	doc, err := toDoc(data)
	if err != nil {
		return zero, common.ErrInvalidFormat
	}

	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
	}
	doc["_id"] = id

	now := time.Now().UnixMilli()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	s.mu.Lock()
	s.docs[id] = doc
	s.mu.Unlock()

	return fromDoc[T](doc)
}

func (s *MemoryStore[T]) FindOne(ctx context.Context, filter interface{}, opts *options.FindOneOptions) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			return fromDoc[T](doc)
		}
	}
	return zero, common.ErrNotFound
}

func (s *MemoryStore[T]) Find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]T, error) {
	s.mu.Lock()
	var matched []map[string]interface{}
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	s.mu.Unlock()

	if opts != nil && opts.Sort != nil {
		sortDocs(matched, opts.Sort)
	}

	results := make([]T, 0, len(matched))
	for _, doc := range matched {
		model, err := fromDoc[T](doc)
		if err != nil {
			return nil, err
		}
		results = append(results, model)
	}
	return results, nil
}

func (s *MemoryStore[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			if err := applyUpdate(doc, update); err != nil {
				return zero, err
			}
			doc["updatedAt"] = time.Now().UnixMilli()
			return fromDoc[T](doc)
		}
	}
	return zero, common.ErrNotFound
}

func (s *MemoryStore[T]) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts *options.UpdateOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	now := time.Now().UnixMilli()
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			if err := applyUpdate(doc, update); err != nil {
				return modified, err
			}
			doc["updatedAt"] = now
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore[T]) DeleteOne(ctx context.Context, filter interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range s.docs {
		if matchFilter(doc, filter) {
			delete(s.docs, id)
			return nil
		}
	}
	return common.ErrNotFound
}

func (s *MemoryStore[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, doc := range s.docs {
		if matchFilter(doc, filter) {
			delete(s.docs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore[T]) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, doc := range s.docs {
		if matchFilter(doc, filter) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore[T]) FindOneById(ctx context.Context, id primitive.ObjectID) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return zero, common.ErrNotFound
	}
	return fromDoc[T](doc)
}

func (s *MemoryStore[T]) FindManyByIds(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []T
	for id, doc := range s.docs {
		if wanted[id] {
			model, err := fromDoc[T](doc)
			if err != nil {
				return nil, err
			}
			results = append(results, model)
		}
	}
	return results, nil
}

func (s *MemoryStore[T]) FindWithPagination(ctx context.Context, filter interface{}, page, limit int64, opts *options.FindOptions) (*basemodels.PaginateResult[T], error) {
	items, err := s.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	total := int64(len(items))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageItems := items[start:end]

	var totalPage int64
	if total > 0 {
		totalPage = (total + limit - 1) / limit
	}

	return &basemodels.PaginateResult[T]{
		Items:     pageItems,
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(pageItems)),
		Total:     total,
		TotalPage: totalPage,
	}, nil
}

func (s *MemoryStore[T]) UpdateById(ctx context.Context, id primitive.ObjectID, data interface{}) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return zero, common.ErrNotFound
	}
	if err := applyUpdate(doc, data); err != nil {
		return zero, err
	}
	doc["updatedAt"] = time.Now().UnixMilli()
	return fromDoc[T](doc)
}

func (s *MemoryStore[T]) DeleteById(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore[T]) DocumentExists(ctx context.Context, filter interface{}) (bool, error) {
	count, err := s.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MemoryStore[T]) BulkWrite(ctx context.Context, models []mongo.WriteModel) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for _, wm := range models {
		switch m := wm.(type) {
		case *mongo.DeleteOneModel:
			for id, doc := range s.docs {
				if matchFilter(doc, m.Filter) {
					delete(s.docs, id)
					affected++
					break
				}
			}
		case *mongo.UpdateOneModel:
			for _, doc := range s.docs {
				if matchFilter(doc, m.Filter) {
					if err := applyUpdate(doc, m.Update); err != nil {
						return affected, err
					}
					affected++
					break
				}
			}
		default:
			return affected, fmt.Errorf("write model không được hỗ trợ: %T", wm)
		}
	}
	return affected, nil
}

// =========================================
// HELPERS
// =========================================

// toDoc chuyển model thành document thô qua BSON round-trip
func toDoc[T any](data T) (map[string]interface{}, error) {
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fromDoc decode document thô về model
func fromDoc[T any](doc map[string]interface{}) (T, error) {
	var model T
	raw, err := bson.Marshal(doc)
	if err != nil {
		return model, err
	}
	if err := bson.Unmarshal(raw, &model); err != nil {
		return model, err
	}
	return model, nil
}

// asMap nhận diện các kiểu map dùng làm filter/update
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}

// asInt64 chuẩn hóa các kiểu số BSON về int64
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	if aid, ok := a.(primitive.ObjectID); ok {
		bid, ok := b.(primitive.ObjectID)
		return ok && aid == bid
	}
	if ai, aok := asInt64(a); aok {
		if bi, bok := asInt64(b); bok {
			return ai == bi
		}
	}
	return reflect.DeepEqual(a, b)
}

// matchFilter so khớp document với filter kiểu MongoDB.
// Hỗ trợ so khớp trực tiếp, $in và $exists.
func matchFilter(doc map[string]interface{}, filter interface{}) bool {
	if filter == nil {
		return true
	}
	conds, ok := asMap(filter)
	if !ok {
		// bson.D rỗng nghĩa là match tất cả
		if d, isD := filter.(bson.D); isD && len(d) == 0 {
			return true
		}
		return false
	}

	for key, cond := range conds {
		if ops, isOps := asMap(cond); isOps {
			if !matchOps(doc, key, ops) {
				return false
			}
			continue
		}

		value, exists := doc[key]
		if !exists || !valuesEqual(value, cond) {
			return false
		}
	}
	return true
}

func matchOps(doc map[string]interface{}, key string, ops map[string]interface{}) bool {
	value, exists := doc[key]

	for op, arg := range ops {
		switch op {
		case "$exists":
			want, _ := arg.(bool)
			if exists != want {
				return false
			}
		case "$in":
			if !exists {
				return false
			}
			list := reflect.ValueOf(arg)
			if list.Kind() != reflect.Slice {
				return false
			}
			found := false
			for i := 0; i < list.Len(); i++ {
				if valuesEqual(value, list.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// applyUpdate áp một update document ($set/$inc/$unset hoặc UpdateData) vào doc
func applyUpdate(doc map[string]interface{}, update interface{}) error {
	var set, inc, unset map[string]interface{}

	switch u := update.(type) {
	case *basesvc.UpdateData:
		set, unset, inc = u.Set, u.Unset, u.Inc
	case basesvc.UpdateData:
		set, unset, inc = u.Set, u.Unset, u.Inc
	default:
		m, ok := asMap(update)
		if !ok {
			return fmt.Errorf("update không được hỗ trợ: %T", update)
		}
		if _, hasOp := m["$set"]; hasOp {
			set, _ = asMap(m["$set"])
			inc, _ = asMap(m["$inc"])
			unset, _ = asMap(m["$unset"])
		} else if _, hasInc := m["$inc"]; hasInc {
			inc, _ = asMap(m["$inc"])
			unset, _ = asMap(m["$unset"])
		} else if _, hasUnset := m["$unset"]; hasUnset {
			unset, _ = asMap(m["$unset"])
		} else {
			set = m
		}
	}

	for k, v := range set {
		doc[k] = v
	}
	for k, v := range inc {
		current, _ := asInt64(doc[k])
		delta, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("giá trị $inc không phải số: %v", v)
		}
		doc[k] = current + delta
	}
	for k := range unset {
		delete(doc, k)
	}
	return nil
}

// sortDocs sắp xếp theo key đầu tiên của sort document (giá trị số)
func sortDocs(docs []map[string]interface{}, sortSpec interface{}) {
	d, ok := sortSpec.(bson.D)
	if !ok || len(d) == 0 {
		return
	}
	key := d[0].Key
	asc := true
	if dir, ok := asInt64(d[0].Value); ok && dir < 0 {
		asc = false
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := asInt64(docs[i][key])
		b, _ := asInt64(docs[j][key])
		if asc {
			return a < b
		}
		return a > b
	})
}
