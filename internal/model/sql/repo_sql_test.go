package sql

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"huchenghe/internal/auth"
	"huchenghe/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 内存库按连接隔离，固定单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestRepository(t *testing.T, opts Options) (*GormRepository, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	if err := db.AutoMigrate(&entity.DbModelRecord{}, &entity.DbUser{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormRepository(db, opts), db
}

func strPtr(v string) *string { return &v }

func TestModelLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t, Options{})
	ctx := context.Background()

	created, err := repo.CreateModel(ctx, &entity.ModelFields{Name: " 石狮 ", Quantity: 0, ImagePath: strPtr(" ")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if created.Name != "石狮" {
		t.Errorf("expected trimmed name, got %q", created.Name)
	}
	if len(created.ModelCode) <= len(entity.ModelCodePrefix) || created.ModelCode[:len(entity.ModelCodePrefix)] != entity.ModelCodePrefix {
		t.Errorf("expected generated code, got %q", created.ModelCode)
	}
	if created.Category != entity.DefaultModelCategory || created.Area != entity.DefaultModelArea || created.Quantity != 1 {
		t.Errorf("expected defaults, got %+v", created)
	}
	if created.ImagePath != nil {
		t.Errorf("expected blank image path stored as null, got %q", *created.ImagePath)
	}
	if created.CreateTime == nil || created.UpdateTime == nil {
		t.Error("expected timestamps to be set")
	}

	err = repo.UpdateModel(ctx, created.ID, &entity.ModelFields{
		ModelCode: "IGNORED",
		Name:      "石狮（修）",
		Category:  "雕塑",
		Area:      "A区",
		Quantity:  3,
		ModelPath: strPtr("models/lion.obj"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetModel(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "石狮（修）" || got.Category != "雕塑" || got.Area != "A区" || got.Quantity != 3 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.ModelCode != created.ModelCode {
		t.Errorf("model code changed from %q to %q", created.ModelCode, got.ModelCode)
	}
	if got.ModelPath == nil || *got.ModelPath != "models/lion.obj" {
		t.Errorf("expected model path, got %v", got.ModelPath)
	}

	if err := repo.DeleteModel(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetModel(ctx, created.ID); entity.KindOf(err) != entity.KindNotFound {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := repo.DeleteModel(ctx, created.ID); entity.KindOf(err) != entity.KindNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestCreateModelDuplicateCode(t *testing.T) {
	repo, _ := newTestRepository(t, Options{})
	ctx := context.Background()

	if _, err := repo.CreateModel(ctx, &entity.ModelFields{ModelCode: "MODEL_001", Name: "a"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.CreateModel(ctx, &entity.ModelFields{ModelCode: "MODEL_001", Name: "b"})
	if entity.KindOf(err) != entity.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	total, err := repo.CountModels(ctx, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 row after conflict, got %d", total)
	}
}

func TestCreateModelGeneratedCodesDoNotCollide(t *testing.T) {
	repo, _ := newTestRepository(t, Options{})
	ctx := context.Background()

	const n = 200
	codes := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		created, err := repo.CreateModel(ctx, &entity.ModelFields{Name: "m"})
		if err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
		codes[created.ModelCode] = struct{}{}
	}
	if len(codes) != n {
		t.Errorf("expected %d distinct codes, got %d", n, len(codes))
	}
}

func TestCreateModelRequiresName(t *testing.T) {
	repo := NewGormRepository(nil, Options{})
	_, err := repo.CreateModel(context.Background(), &entity.ModelFields{Name: "   "})
	if entity.KindOf(err) != entity.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if entity.FieldOf(err) != "name" {
		t.Errorf("expected field name, got %q", entity.FieldOf(err))
	}
	if err := repo.UpdateModel(context.Background(), 1, nil); entity.KindOf(err) != entity.KindValidation {
		t.Errorf("expected validation error on update, got %v", err)
	}
}

func TestUpdateModelNotFound(t *testing.T) {
	repo, _ := newTestRepository(t, Options{})
	err := repo.UpdateModel(context.Background(), 42, &entity.ModelFields{Name: "x"})
	if entity.KindOf(err) != entity.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListModelsFiltersAndPaging(t *testing.T) {
	repo, _ := newTestRepository(t, Options{})
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		category := "雕塑"
		if i%5 == 0 {
			category = "建筑"
		}
		fields := &entity.ModelFields{
			ModelCode: fmt.Sprintf("MODEL_%03d", i),
			Name:      fmt.Sprintf("模型-%03d", i),
			Category:  category,
		}
		if _, err := repo.CreateModel(ctx, fields); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	tests := []struct {
		name      string
		query     entity.ModelQuery
		wantLen   int
		wantTotal int64
	}{
		{name: "默认分页", query: entity.ModelQuery{}, wantLen: 10, wantTotal: 105},
		{name: "上限 100", query: entity.ModelQuery{PageSize: "200"}, wantLen: 100, wantTotal: 105},
		{name: "最后一页", query: entity.ModelQuery{Page: "11", PageSize: "10"}, wantLen: 5, wantTotal: 105},
		{name: "超出范围", query: entity.ModelQuery{Page: "50"}, wantLen: 0, wantTotal: 105},
		{name: "分类", query: entity.ModelQuery{Category: "建筑", PageSize: "100"}, wantLen: 21, wantTotal: 21},
		{name: "type 别名", query: entity.ModelQuery{Type: "建筑", PageSize: "100"}, wantLen: 21, wantTotal: 21},
		{name: "all", query: entity.ModelQuery{Category: "all", PageSize: "100"}, wantLen: 100, wantTotal: 105},
		{name: "名称模糊", query: entity.ModelQuery{Name: "-10"}, wantLen: 5, wantTotal: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			records, err := repo.ListModels(ctx, &q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != tt.wantLen {
				t.Errorf("expected %d records, got %d", tt.wantLen, len(records))
			}
			total, err := repo.CountModels(ctx, &q)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, total)
			}
		})
	}
}

func TestListModelsReadsLegacyColumns(t *testing.T) {
	db := openTestDB(t)
	statements := []string{
		`CREATE TABLE models (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			modelCode TEXT,
			name TEXT NOT NULL,
			category TEXT,
			region TEXT,
			image_url TEXT,
			nas_path TEXT,
			quantity INTEGER,
			created_at TEXT
		)`,
		`INSERT INTO models (modelCode, name, category, region, image_url, nas_path, quantity, created_at)
			VALUES ('MODEL_LEGACY', '旧石狮', '雕塑', '北区', '/images/old.jpg', '/nas/old.obj', 2, '2023-01-02 03:04:05')`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	repo := NewGormRepository(db, Options{})

	records, err := repo.ListModels(context.Background(), &entity.ModelQuery{Category: "雕塑"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ModelCode != "MODEL_LEGACY" || r.Area != "北区" || r.Quantity != 2 {
		t.Errorf("legacy fields not mapped: %+v", r)
	}
	if r.ImagePath == nil || *r.ImagePath != "/images/old.jpg" {
		t.Errorf("expected image path from image_url, got %v", r.ImagePath)
	}
	if r.ModelPath == nil || *r.ModelPath != "/nas/old.obj" {
		t.Errorf("expected model path from nas_path, got %v", r.ModelPath)
	}
	if r.CreateTime == nil || r.CreateTime.Year() != 2023 {
		t.Errorf("expected create time from created_at, got %v", r.CreateTime)
	}

	got, err := repo.GetModel(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Area != "北区" {
		t.Errorf("expected area 北区, got %q", got.Area)
	}
}

func TestListModelsUnknownColumnIsSchemaMismatch(t *testing.T) {
	db := openTestDB(t)
	if err := db.Exec(`CREATE TABLE models (id INTEGER PRIMARY KEY, name TEXT)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	repo := NewGormRepository(db, Options{})

	_, err := repo.ListModels(context.Background(), &entity.ModelQuery{Category: "雕塑"})
	if entity.KindOf(err) != entity.KindSchemaMismatch {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if entity.CauseOf(err) == "" {
		t.Error("expected driver message as cause")
	}
}

func TestLoginAcceptsLegacyPlaintextAndUpgrades(t *testing.T) {
	repo, db := newTestRepository(t, Options{UpgradeLegacyPasswords: true})
	ctx := context.Background()

	legacy := &entity.DbUser{Username: "老管理员", Phone: "13800000000", Password: "123456", Role: entity.UserRoleAdmin}
	if err := db.Create(legacy).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	user, err := repo.Login(ctx, " 13800000000 ", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != legacy.ID {
		t.Errorf("expected user %d, got %d", legacy.ID, user.ID)
	}

	var stored entity.DbUser
	if err := db.First(&stored, legacy.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !auth.IsHashed(stored.Password) {
		t.Errorf("expected password to be upgraded, got %q", stored.Password)
	}

	if _, err := repo.Login(ctx, "13800000000", "123456"); err != nil {
		t.Errorf("expected login after upgrade, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	repo, db := newTestRepository(t, Options{})
	hashed, err := auth.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&entity.DbUser{Username: "u", Phone: "13900000000", Password: hashed, Role: entity.UserRoleUser}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name     string
		phone    string
		password string
		wantKind entity.ErrorKind
	}{
		{name: "密码错误", phone: "13900000000", password: "wrong", wantKind: entity.KindAuthFailure},
		{name: "用户不存在", phone: "10000000000", password: "secret", wantKind: entity.KindAuthFailure},
		{name: "缺少手机号", phone: " ", password: "secret", wantKind: entity.KindValidation},
		{name: "缺少密码", phone: "13900000000", password: "", wantKind: entity.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Login(context.Background(), tt.phone, tt.password)
			if entity.KindOf(err) != tt.wantKind {
				t.Errorf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestUserMutations(t *testing.T) {
	repo, _ := newTestRepository(t, Options{DefaultUserPassword: "123456"})
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, &entity.UserFields{Username: "alice", Phone: "13100000001"})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if alice.Role != entity.UserRoleUser {
		t.Errorf("expected default role user, got %q", alice.Role)
	}
	if !auth.IsHashed(alice.Password) {
		t.Error("expected hashed password")
	}
	if _, err := repo.Login(ctx, "13100000001", "123456"); err != nil {
		t.Errorf("expected default password to work, got %v", err)
	}

	_, err = repo.CreateUser(ctx, &entity.UserFields{Username: "alice2", Phone: "13100000001"})
	if entity.KindOf(err) != entity.KindConflict {
		t.Errorf("expected phone conflict, got %v", err)
	}

	bob, err := repo.CreateUser(ctx, &entity.UserFields{Username: "bob", Phone: "13100000002", Role: "ADMIN", Password: "bobpass"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	if bob.Role != entity.UserRoleAdmin {
		t.Errorf("expected admin role, got %q", bob.Role)
	}

	_, err = repo.UpdateUser(ctx, bob.ID, &entity.UserFields{Username: "bob", Phone: "13100000001", Role: "admin"})
	if entity.KindOf(err) != entity.KindConflict {
		t.Errorf("expected conflict when taking alice's phone, got %v", err)
	}

	_, err = repo.UpdateUser(ctx, bob.ID, &entity.UserFields{Username: "bob", Phone: "13100000002", Role: "root"})
	if entity.KindOf(err) != entity.KindValidation {
		t.Errorf("expected invalid role, got %v", err)
	}

	updated, err := repo.UpdateUser(ctx, bob.ID, &entity.UserFields{Username: "robert", Phone: "13100000002", Role: "user"})
	if err != nil {
		t.Fatalf("update bob: %v", err)
	}
	if updated.Username != "robert" || updated.Role != entity.UserRoleUser {
		t.Errorf("update not applied: %+v", updated)
	}
	if _, err := repo.Login(ctx, "13100000002", "bobpass"); err != nil {
		t.Errorf("expected password unchanged, got %v", err)
	}

	if _, err := repo.UpdateUser(ctx, 999, &entity.UserFields{Username: "x", Phone: "1"}); entity.KindOf(err) != entity.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	if err := repo.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteUser(ctx, alice.ID); entity.KindOf(err) != entity.KindNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestUserPasswordTooLong(t *testing.T) {
	repo, _ := newTestRepository(t, Options{DefaultUserPassword: "123456"})
	ctx := context.Background()
	long := strings.Repeat("p", 73)

	_, err := repo.CreateUser(ctx, &entity.UserFields{Username: "carol", Phone: "13100000003", Password: long})
	if entity.KindOf(err) != entity.KindValidation || entity.FieldOf(err) != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
	if msg := entity.MessageOf(err); msg == "密码不能为空" {
		t.Errorf("too-long password reported as empty: %q", msg)
	}

	carol, err := repo.CreateUser(ctx, &entity.UserFields{Username: "carol", Phone: "13100000003"})
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}
	_, err = repo.UpdateUser(ctx, carol.ID, &entity.UserFields{Username: "carol", Phone: "13100000003", Password: long})
	if entity.KindOf(err) != entity.KindValidation || entity.FieldOf(err) != "password" {
		t.Errorf("expected password validation error on update, got %v", err)
	}
}
