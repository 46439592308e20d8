package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feelins/flask-admin/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Information{}, &model.Evaluation{}, &model.Version{}))
	return db
}

func strPtr(s string) *string { return &s }

func seedInformation(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []model.Information{
		{Lang: "zh", Gender: "F", Name: "xiaoyan", Duration: "10h", EngineNameID: strPtr("x-001")},
		{Lang: "zh", Gender: "M", Name: "xiaofeng", Duration: "8h", EngineNameID: strPtr("x-002")},
		{Lang: "en", Gender: "F", Name: "Catherine", Duration: "5h"},
		{Lang: "ja", Gender: "F", Name: "mariko_100%", Duration: ""},
	}
	require.NoError(t, db.Create(&rows).Error)
}

func TestTable_Describe(t *testing.T) {
	db := setupTestDB(t)

	tbl, err := NewTable(db, &model.Information{})
	require.NoError(t, err)

	assert.Equal(t, "information", tbl.Name())
	assert.Equal(t, "Information", tbl.ModelName())
	assert.Equal(t, []string{"id", "lang", "gender", "name", "duration", "engine_name_id", "update_date"}, tbl.Columns())
	assert.Equal(t, "id", tbl.PrimaryKey().DBName)
	assert.Equal(t, KindTime, tbl.Kind("update_date"))
	assert.Equal(t, KindText, tbl.Kind("name"))
	assert.Equal(t, KindNumber, tbl.Kind("id"))
	assert.True(t, tbl.Nullable("engine_name_id"))
	assert.False(t, tbl.Nullable("name"))

	f, ok := tbl.Field("gender")
	require.True(t, ok)
	assert.Equal(t, 8, f.Size)

	_, ok = tbl.Field("missing")
	assert.False(t, ok)
}

func TestTable_ValueAndSet(t *testing.T) {
	db := setupTestDB(t)
	tbl, err := NewTable(db, &model.Evaluation{})
	require.NoError(t, err)
	ctx := context.Background()

	rec := tbl.New()
	require.NoError(t, tbl.Set(ctx, rec, "lang", "zh"))
	assert.Nil(t, tbl.Value(ctx, rec, "mos_date"), "空指针字段应返回 nil")

	day := time.Date(2022, 10, 10, 0, 0, 0, 0, time.Local)
	require.NoError(t, tbl.Set(ctx, rec, "mos_date", day))
	assert.Equal(t, day, tbl.Value(ctx, rec, "mos_date"))
	assert.Equal(t, "zh", tbl.Value(ctx, rec, "lang"))

	require.NoError(t, tbl.Set(ctx, rec, "mos_date", nil))
	assert.Nil(t, tbl.Value(ctx, rec, "mos_date"))

	assert.Error(t, tbl.Set(ctx, rec, "nope", "x"))

	_, err = tbl.ParseID("abc")
	assert.ErrorIs(t, err, ErrInvalidID)
	id, err := tbl.ParseID("7")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestRecordRepo_ListSearchAndSort(t *testing.T) {
	db := setupTestDB(t)
	seedInformation(t, db)
	repo := NewRecordRepo(db)
	tbl, _ := NewTable(db, &model.Information{})
	ctx := context.Background()

	t.Run("全部记录按主键排序", func(t *testing.T) {
		recs, total, err := repo.List(ctx, tbl, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, recs, 4)
		assert.Equal(t, "xiaoyan", recs[0].(*model.Information).Name)
	})

	t.Run("搜索忽略大小写", func(t *testing.T) {
		recs, total, err := repo.List(ctx, tbl, &ListQuery{
			SearchColumns: []string{"name", "engine_name_id", "lang"},
			SearchTerms:   []string{"CATH"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Catherine", recs[0].(*model.Information).Name)
	})

	t.Run("多个搜索词需全部命中", func(t *testing.T) {
		_, total, err := repo.List(ctx, tbl, &ListQuery{
			SearchColumns: []string{"name", "lang"},
			SearchTerms:   []string{"zh", "feng"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("通配符按字面匹配", func(t *testing.T) {
		_, total, err := repo.List(ctx, tbl, &ListQuery{
			SearchColumns: []string{"name"},
			SearchTerms:   []string{"100%"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		_, total, err = repo.List(ctx, tbl, &ListQuery{
			SearchColumns: []string{"name"},
			SearchTerms:   []string{"_"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, "下划线不应作为单字符通配")
	})

	t.Run("排序与分页", func(t *testing.T) {
		recs, total, err := repo.List(ctx, tbl, &ListQuery{
			SortColumn: "name",
			SortDesc:   true,
			Offset:     1,
			Limit:      2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total, "总数不受分页影响")
		require.Len(t, recs, 2)
		assert.Equal(t, "xiaofeng", recs[0].(*model.Information).Name)
		assert.Equal(t, "mariko_100%", recs[1].(*model.Information).Name)
	})
}

func TestRecordRepo_Filters(t *testing.T) {
	db := setupTestDB(t)
	seedInformation(t, db)
	repo := NewRecordRepo(db)
	tbl, _ := NewTable(db, &model.Information{})
	ctx := context.Background()

	count := func(f Filter) int64 {
		t.Helper()
		_, total, err := repo.List(ctx, tbl, &ListQuery{Filters: []Filter{f}})
		require.NoError(t, err)
		return total
	}

	assert.Equal(t, int64(2), count(Filter{Column: "lang", Kind: KindText, Op: OpEqual, Values: []interface{}{"zh"}}))
	assert.Equal(t, int64(2), count(Filter{Column: "lang", Kind: KindText, Op: OpNotEqual, Values: []interface{}{"zh"}}))
	assert.Equal(t, int64(2), count(Filter{Column: "name", Kind: KindText, Op: OpLike, Values: []interface{}{"XIAO"}}))
	assert.Equal(t, int64(2), count(Filter{Column: "name", Kind: KindText, Op: OpNotLike, Values: []interface{}{"xiao"}}))
	assert.Equal(t, int64(2), count(Filter{Column: "engine_name_id", Kind: KindText, Op: OpEmpty, Values: []interface{}{true}}))
	assert.Equal(t, int64(2), count(Filter{Column: "engine_name_id", Kind: KindText, Op: OpEmpty, Values: []interface{}{false}}))
	assert.Equal(t, int64(2), count(Filter{Column: "engine_name_id", Kind: KindText, Op: OpNotLike, Values: []interface{}{"x-"}}),
		"NULL 视为不包含")
}

func TestRecordRepo_TimeFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepo(db)
	tbl, _ := NewTable(db, &model.Evaluation{})
	ctx := context.Background()

	d := func(day int) time.Time { return time.Date(2022, 10, day, 12, 0, 0, 0, time.Local) }
	rows := []model.Evaluation{
		{Lang: "zh", UpdateDate: d(9)},
		{Lang: "zh", UpdateDate: d(10)},
		{Lang: "en", UpdateDate: d(11)},
	}
	require.NoError(t, db.Create(&rows).Error)

	count := func(op FilterOp, values ...interface{}) int64 {
		t.Helper()
		_, total, err := repo.List(ctx, tbl, &ListQuery{Filters: []Filter{{Column: "update_date", Kind: KindTime, Op: op, Values: values}}})
		require.NoError(t, err)
		return total
	}

	dayStart := time.Date(2022, 10, 10, 0, 0, 0, 0, time.Local)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	assert.Equal(t, int64(1), count(OpEqual, dayStart, dayEnd))
	assert.Equal(t, int64(2), count(OpNotEqual, dayStart, dayEnd))
	assert.Equal(t, int64(1), count(OpGreater, dayEnd))
	assert.Equal(t, int64(1), count(OpSmaller, dayStart))
	assert.Equal(t, int64(2), count(OpBetween, d(9), d(10)))
	assert.Equal(t, int64(3), count(OpEmpty, false))
	assert.Equal(t, int64(0), count(OpEmpty, true))
}

func TestRecordRepo_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepo(db)
	tbl, _ := NewTable(db, &model.Version{})
	ctx := context.Background()

	v := &model.Version{OtherComment: "first"}
	require.NoError(t, repo.Create(ctx, v))
	require.NotZero(t, v.ID)
	assert.False(t, v.UpdateTime.IsZero(), "创建时应填充更新时间")

	id := fmt.Sprint(v.ID)
	got, err := repo.GetByID(ctx, tbl, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.(*model.Version).OtherComment)

	got.(*model.Version).OtherComment = "second"
	require.NoError(t, repo.Save(ctx, got))

	require.NoError(t, repo.UpdateColumn(ctx, tbl, id, "other_comment", "third"))
	got, _ = repo.GetByID(ctx, tbl, id)
	assert.Equal(t, "third", got.(*model.Version).OtherComment)

	assert.ErrorIs(t, repo.UpdateColumn(ctx, tbl, "999", "other_comment", "x"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, tbl, id))
	_, err = repo.GetByID(ctx, tbl, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, tbl, id), gorm.ErrRecordNotFound)

	_, err = repo.GetByID(ctx, tbl, "not-a-number")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecordRepo_UniqueViolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Information{Name: "a", EngineNameID: strPtr("dup")}))
	err := repo.Create(ctx, &model.Information{Name: "b", EngineNameID: strPtr("dup")})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "唯一约束冲突应转换为 ErrDuplicatedKey, 实际: %v", err)

	require.NoError(t, repo.Create(ctx, &model.Information{Name: "c"}))
	require.NoError(t, repo.Create(ctx, &model.Information{Name: "d"}), "多个 NULL 代号不冲突")
}

func TestRecordRepo_CreateAllIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecordRepo(db)
	ctx := context.Background()

	infos := []model.Information{{Name: "a", EngineNameID: strPtr("same")}, {Name: "b", EngineNameID: strPtr("same")}}
	versions := []model.Version{{}}
	err := repo.CreateAll(ctx, &versions, &infos)
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&model.Version{}).Count(&n).Error)
	assert.Zero(t, n, "失败时前面的批次也应回滚")

	evals := []model.Evaluation{{Lang: "zh"}, {Lang: "en"}}
	empty := []model.Information{}
	require.NoError(t, repo.CreateAll(ctx, &evals, &empty, &versions))
	require.NoError(t, db.Model(&model.Evaluation{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
