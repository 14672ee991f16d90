//go:build sqlite

package sqlite

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    _ "modernc.org/sqlite" // CGO-less SQLite driver

    "styleassets/internal/domain"
    "styleassets/internal/storage"
)

type Store struct {
    db *sql.DB
}

func New(dsn string) (*Store, error) {
    db, err := sql.Open("sqlite", dsn)
    if err != nil {
        return nil, err
    }
    if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;`); err != nil {
        _ = db.Close()
        return nil, err
    }
    if err := runMigrations(db); err != nil {
        _ = db.Close()
        return nil, err
    }
    // Capture schema status silently; can be surfaced via Status()
    var _schemaVersion, _minSupported int
    var _appVersion, _appliedAt string
    _ = db.QueryRow(`SELECT schema_version, min_supported_schema, app_version, applied_at FROM schema_info WHERE id=1`).Scan(&_schemaVersion, &_minSupported, &_appVersion, &_appliedAt)
    return &Store{db: db}, nil
}

// Status returns schema_migrations and schema_info summary for the given DSN without creating a Store.
func Status(dsn string) (string, error) {
    db, err := sql.Open("sqlite", dsn)
    if err != nil { return "", err }
    defer db.Close()
    // ensure tables may exist; do not run migrations here
    var latest int
    _ = db.QueryRow(`SELECT COALESCE(MAX(version),0) FROM schema_migrations`).Scan(&latest)
    var schemaVersion, minSupported int
    var appVersion, appliedAt string
    _ = db.QueryRow(`SELECT schema_version, min_supported_schema, app_version, applied_at FROM schema_info WHERE id=1`).Scan(&schemaVersion, &minSupported, &appVersion, &appliedAt)
    // Count applied
    var count int
    _ = db.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count)
    return fmt.Sprintf("schema_version=%d applied=%d latest=%d app_version=%s applied_at=%s min_supported=%d", schemaVersion, count, latest, appVersion, appliedAt, minSupported), nil
}

var _ storage.Store = (*Store)(nil)

// Ping checks database connectivity (implements storage.HealthCheck).
func (s *Store) Ping(ctx context.Context) error {
    return s.db.PingContext(ctx)
}

// Stats returns connection pool statistics (implements storage.HealthCheck).
func (s *Store) Stats() *storage.DBStats {
    st := s.db.Stats()
    return &storage.DBStats{
        MaxOpenConnections: st.MaxOpenConnections,
        OpenConnections:    st.OpenConnections,
        InUse:              st.InUse,
        Idle:               st.Idle,
        WaitCount:          st.WaitCount,
        WaitDuration:       st.WaitDuration.Nanoseconds(),
    }
}

func (s *Store) Close() error { return s.db.Close() }

// marshal JSON-encodes slice/map columns; nil encodes as the given zero literal.
func marshal(v any, zero string) string {
    b, err := json.Marshal(v)
    if err != nil || string(b) == "null" {
        return zero
    }
    return string(b)
}

func parseTS(ts string) time.Time {
    t, err := time.Parse(time.RFC3339, ts)
    if err != nil { return time.Time{} }
    return t
}

const fontColumns = `id, name, family, category, weight, style, formats, usage, compatibility, file_size, character_set, license, status, download_count, registered_at`

func scanFont(row interface{ Scan(...any) error }) (domain.Font, error) {
    var f domain.Font
    var formats, compat, ts string
    if err := row.Scan(&f.ID, &f.Name, &f.Family, &f.Category, &f.Weight, &f.Style, &formats, &f.Usage, &compat, &f.FileSize, &f.CharacterSet, &f.License, &f.Status, &f.DownloadCount, &ts); err != nil {
        return domain.Font{}, err
    }
    _ = json.Unmarshal([]byte(formats), &f.Formats)
    _ = json.Unmarshal([]byte(compat), &f.Compatibility)
    f.RegisteredAt = parseTS(ts)
    return f, nil
}

func (s *Store) ListFonts(ctx context.Context) ([]domain.Font, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+fontColumns+` FROM fonts ORDER BY id ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []domain.Font
    for rows.Next() {
        f, err := scanFont(rows)
        if err != nil { return nil, err }
        out = append(out, f)
    }
    return out, rows.Err()
}

func (s *Store) CreateFont(ctx context.Context, in domain.RegisterFont) (domain.Font, error) {
    if in.Name == "" || in.Family == "" || in.Category == "" {
        return domain.Font{}, fmt.Errorf("name, family and category required: %w", storage.ErrValidation)
    }
    f := in.Font(time.Now().UTC())
    _, err := s.db.ExecContext(ctx, `INSERT INTO fonts(`+fontColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        f.ID, f.Name, f.Family, f.Category, f.Weight, f.Style, marshal(f.Formats, "[]"), f.Usage, marshal(f.Compatibility, "[]"), f.FileSize, f.CharacterSet, f.License, f.Status, f.DownloadCount, f.RegisteredAt.Format(time.RFC3339))
    if err != nil {
        return domain.Font{}, storage.WrapIfConflict(err)
    }
    return f, nil
}

func (s *Store) GetFont(ctx context.Context, id string) (domain.Font, bool, error) {
    f, err := scanFont(s.db.QueryRowContext(ctx, `SELECT `+fontColumns+` FROM fonts WHERE id=?`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return domain.Font{}, false, nil
        }
        return domain.Font{}, false, err
    }
    return f, true, nil
}

func (s *Store) IncrementFontDownloads(ctx context.Context, id string) (domain.Font, bool, error) {
    res, err := s.db.ExecContext(ctx, `UPDATE fonts SET download_count = download_count + 1 WHERE id=?`, id)
    if err != nil {
        return domain.Font{}, false, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return domain.Font{}, false, nil
    }
    return s.GetFont(ctx, id)
}

const schemeColumns = `id, name, category, description, colors, usage, compatibility, accessibility, status, usage_count, created_at`

func scanScheme(row interface{ Scan(...any) error }) (domain.ColorScheme, error) {
    var c domain.ColorScheme
    var colors, compat, access, ts string
    if err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Description, &colors, &c.Usage, &compat, &access, &c.Status, &c.UsageCount, &ts); err != nil {
        return domain.ColorScheme{}, err
    }
    _ = json.Unmarshal([]byte(colors), &c.Colors)
    _ = json.Unmarshal([]byte(compat), &c.Compatibility)
    _ = json.Unmarshal([]byte(access), &c.Accessibility)
    c.CreatedAt = parseTS(ts)
    return c, nil
}

func (s *Store) ListSchemes(ctx context.Context) ([]domain.ColorScheme, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+schemeColumns+` FROM color_schemes ORDER BY id ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []domain.ColorScheme
    for rows.Next() {
        c, err := scanScheme(rows)
        if err != nil { return nil, err }
        out = append(out, c)
    }
    return out, rows.Err()
}

func (s *Store) CreateScheme(ctx context.Context, in domain.CreateColorScheme) (domain.ColorScheme, error) {
    if in.Name == "" || in.Category == "" || len(in.Colors) == 0 {
        return domain.ColorScheme{}, fmt.Errorf("name, category and colors required: %w", storage.ErrValidation)
    }
    if bad := domain.InvalidColors(in.Colors); len(bad) > 0 {
        return domain.ColorScheme{}, fmt.Errorf("%s: %w", strings.Join(bad, "; "), storage.ErrValidation)
    }
    c := in.Scheme(time.Now().UTC())
    _, err := s.db.ExecContext(ctx, `INSERT INTO color_schemes(`+schemeColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        c.ID, c.Name, c.Category, c.Description, marshal(c.Colors, "{}"), c.Usage, marshal(c.Compatibility, "[]"), marshal(c.Accessibility, "{}"), c.Status, c.UsageCount, c.CreatedAt.Format(time.RFC3339))
    if err != nil {
        return domain.ColorScheme{}, storage.WrapIfConflict(err)
    }
    return c, nil
}

func (s *Store) GetScheme(ctx context.Context, id string) (domain.ColorScheme, bool, error) {
    c, err := scanScheme(s.db.QueryRowContext(ctx, `SELECT `+schemeColumns+` FROM color_schemes WHERE id=?`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return domain.ColorScheme{}, false, nil
        }
        return domain.ColorScheme{}, false, err
    }
    return c, true, nil
}

func (s *Store) IncrementSchemeUsage(ctx context.Context, id string) (domain.ColorScheme, bool, error) {
    res, err := s.db.ExecContext(ctx, `UPDATE color_schemes SET usage_count = usage_count + 1 WHERE id=?`, id)
    if err != nil {
        return domain.ColorScheme{}, false, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return domain.ColorScheme{}, false, nil
    }
    return s.GetScheme(ctx, id)
}

const templateColumns = `id, name, category, description, file_extension, style_compatibility, variables, features, status, usage_count, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (domain.Template, error) {
    var t domain.Template
    var styles, vars, feats, ts string
    if err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Description, &t.FileExtension, &styles, &vars, &feats, &t.Status, &t.UsageCount, &ts); err != nil {
        return domain.Template{}, err
    }
    _ = json.Unmarshal([]byte(styles), &t.StyleCompatibility)
    _ = json.Unmarshal([]byte(vars), &t.Variables)
    _ = json.Unmarshal([]byte(feats), &t.Features)
    t.CreatedAt = parseTS(ts)
    return t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.Template, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY id ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []domain.Template
    for rows.Next() {
        t, err := scanTemplate(rows)
        if err != nil { return nil, err }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (s *Store) CreateTemplate(ctx context.Context, in domain.CreateTemplate) (domain.Template, error) {
    if in.Name == "" || in.Category == "" || in.FileExtension == "" {
        return domain.Template{}, fmt.Errorf("name, category and file_extension required: %w", storage.ErrValidation)
    }
    t := in.Template(time.Now().UTC())
    _, err := s.db.ExecContext(ctx, `INSERT INTO templates(`+templateColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        t.ID, t.Name, t.Category, t.Description, t.FileExtension, marshal(t.StyleCompatibility, "[]"), marshal(t.Variables, "[]"), marshal(t.Features, "[]"), t.Status, t.UsageCount, t.CreatedAt.Format(time.RFC3339))
    if err != nil {
        return domain.Template{}, storage.WrapIfConflict(err)
    }
    return t, nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (domain.Template, bool, error) {
    t, err := scanTemplate(s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id=?`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return domain.Template{}, false, nil
        }
        return domain.Template{}, false, err
    }
    return t, true, nil
}

func (s *Store) IncrementTemplateUsage(ctx context.Context, id string) (domain.Template, bool, error) {
    res, err := s.db.ExecContext(ctx, `UPDATE templates SET usage_count = usage_count + 1 WHERE id=?`, id)
    if err != nil {
        return domain.Template{}, false, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return domain.Template{}, false, nil
    }
    return s.GetTemplate(ctx, id)
}

const bundleColumns = `id, name, style, path, size, checksum, manifest, mirror_url, created_at`

func scanBundle(row interface{ Scan(...any) error }) (domain.Bundle, error) {
    var b domain.Bundle
    var manifest, ts string
    if err := row.Scan(&b.ID, &b.Name, &b.Style, &b.Path, &b.Size, &b.Checksum, &manifest, &b.MirrorURL, &ts); err != nil {
        return domain.Bundle{}, err
    }
    _ = json.Unmarshal([]byte(manifest), &b.Manifest)
    b.CreatedAt = parseTS(ts)
    return b, nil
}

func (s *Store) ListBundles(ctx context.Context) ([]domain.Bundle, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT `+bundleColumns+` FROM bundles ORDER BY created_at DESC, id ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []domain.Bundle
    for rows.Next() {
        b, err := scanBundle(rows)
        if err != nil { return nil, err }
        out = append(out, b)
    }
    return out, rows.Err()
}

func (s *Store) CreateBundle(ctx context.Context, b domain.Bundle) (domain.Bundle, error) {
    if b.ID == "" || b.Name == "" {
        return domain.Bundle{}, fmt.Errorf("bundle id and name required: %w", storage.ErrValidation)
    }
    if b.CreatedAt.IsZero() {
        b.CreatedAt = time.Now().UTC()
    }
    _, err := s.db.ExecContext(ctx, `INSERT INTO bundles(`+bundleColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.ID, b.Name, b.Style, b.Path, b.Size, b.Checksum, marshal(b.Manifest, "{}"), b.MirrorURL, b.CreatedAt.Format(time.RFC3339))
    if err != nil {
        return domain.Bundle{}, storage.WrapIfConflict(err)
    }
    return b, nil
}

func (s *Store) GetBundle(ctx context.Context, id string) (domain.Bundle, bool, error) {
    b, err := scanBundle(s.db.QueryRowContext(ctx, `SELECT `+bundleColumns+` FROM bundles WHERE id=?`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return domain.Bundle{}, false, nil
        }
        return domain.Bundle{}, false, err
    }
    return b, true, nil
}
