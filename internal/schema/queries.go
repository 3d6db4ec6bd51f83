package schema

// queries holds the catalog SQL for one dialect. Every query of a given
// field returns the same column shape in both dialects so the
// Introspector can scan them uniformly.
type queries struct {
	tableKind      string // (type)
	columns        string // (name, type, nullable, key, default, extra)
	uniqueIndexes  string // (index, column) for single-column unique indexes
	viewDefinition string // (definition)
	listTables     string // (name, type, size)
	fkCandidates   string // (name)
	foreignKeys    string // (name, column, ref table, ref column, on delete, on update)
	databases      string // (name, tables, size)
	views          string // (name, definer, security type, updatable)
	definerExists  string // (count); empty when the engine has no account table to check
	currentUser    string // (user)
}

var mysqlQueries = queries{
	tableKind: `
		SELECT table_type
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name   = ?`,

	columns: `
		SELECT column_name,
		       column_type,
		       is_nullable = 'YES',
		       column_key,
		       column_default,
		       extra
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`,

	uniqueIndexes: `
		SELECT index_name,
		       MIN(column_name)
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		  AND non_unique   = 0
		  AND index_name  <> 'PRIMARY'
		GROUP BY index_name
		HAVING COUNT(*) = 1`,

	viewDefinition: `
		SELECT view_definition
		FROM information_schema.views
		WHERE table_schema = DATABASE()
		  AND table_name   = ?`,

	listTables: `
		SELECT table_name,
		       table_type,
		       COALESCE(data_length + index_length, 0)
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		ORDER BY table_name`,

	fkCandidates: `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		  AND table_name  <> ?
		ORDER BY table_name`,

	foreignKeys: `
		SELECT kcu.constraint_name,
		       kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_schema = kcu.table_schema
		 AND rc.constraint_name   = kcu.constraint_name
		WHERE kcu.table_schema           = DATABASE()
		  AND kcu.table_name             = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`,

	databases: `
		SELECT s.schema_name,
		       COUNT(t.table_name),
		       COALESCE(SUM(t.data_length + t.index_length), 0)
		FROM information_schema.schemata s
		LEFT JOIN information_schema.tables t
		  ON t.table_schema = s.schema_name
		GROUP BY s.schema_name
		ORDER BY s.schema_name`,

	views: `
		SELECT table_name,
		       definer,
		       security_type,
		       is_updatable = 'YES'
		FROM information_schema.views
		WHERE table_schema = DATABASE()
		ORDER BY table_name`,

	definerExists: `
		SELECT COUNT(*)
		FROM mysql.user
		WHERE User = ?
		  AND Host = ?`,

	currentUser: `SELECT CURRENT_USER()`,
}

var postgresQueries = queries{
	tableKind: `
		SELECT table_type
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name   = $1`,

	columns: `
		SELECT a.attname,
		       format_type(a.atttypid, a.atttypmod),
		       NOT a.attnotnull,
		       CASE
		         WHEN EXISTS (SELECT 1 FROM pg_index i
		                      WHERE i.indrelid = c.oid AND i.indisprimary
		                        AND a.attnum = ANY (i.indkey)) THEN 'PRI'
		         WHEN EXISTS (SELECT 1 FROM pg_index i
		                      WHERE i.indrelid = c.oid AND i.indisunique
		                        AND i.indnatts = 1 AND i.indkey[0] = a.attnum) THEN 'UNI'
		         WHEN EXISTS (SELECT 1 FROM pg_index i
		                      WHERE i.indrelid = c.oid
		                        AND a.attnum = ANY (i.indkey)) THEN 'MUL'
		         ELSE ''
		       END,
		       pg_get_expr(d.adbin, d.adrelid),
		       CASE
		         WHEN a.attidentity <> '' THEN 'identity'
		         WHEN pg_get_expr(d.adbin, d.adrelid) LIKE 'nextval(%' THEN 'serial'
		         ELSE ''
		       END
		FROM pg_attribute a
		JOIN pg_class c      ON c.oid = a.attrelid
		JOIN pg_namespace n  ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d
		  ON d.adrelid = a.attrelid
		 AND d.adnum   = a.attnum
		WHERE n.nspname = current_schema()
		  AND c.relname = $1
		  AND a.attnum  > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum`,

	uniqueIndexes: `
		SELECT ic.relname,
		       a.attname
		FROM pg_index i
		JOIN pg_class t      ON t.oid = i.indrelid
		JOIN pg_namespace n  ON n.oid = t.relnamespace
		JOIN pg_class ic     ON ic.oid = i.indexrelid
		JOIN pg_attribute a  ON a.attrelid = t.oid AND a.attnum = i.indkey[0]
		WHERE n.nspname = current_schema()
		  AND t.relname = $1
		  AND i.indisunique
		  AND NOT i.indisprimary
		  AND i.indnatts = 1`,

	viewDefinition: `
		SELECT view_definition
		FROM information_schema.views
		WHERE table_schema = current_schema()
		  AND table_name   = $1`,

	listTables: `
		SELECT c.relname,
		       CASE WHEN c.relkind IN ('v', 'm') THEN 'VIEW' ELSE 'BASE TABLE' END,
		       CASE WHEN c.relkind IN ('r', 'p') THEN pg_total_relation_size(c.oid) ELSE 0 END
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = current_schema()
		  AND c.relkind IN ('r', 'p', 'v', 'm')
		ORDER BY c.relname`,

	fkCandidates: `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type   = 'BASE TABLE'
		  AND table_name  <> $1
		ORDER BY table_name`,

	foreignKeys: `
		SELECT tc.constraint_name,
		       kcu.column_name,
		       ccu.table_name,
		       ccu.column_name,
		       rc.delete_rule,
		       rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema    = ccu.table_schema
		JOIN information_schema.referential_constraints rc
		  ON tc.constraint_name = rc.constraint_name
		 AND tc.table_schema    = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = current_schema()
		  AND tc.table_name      = $1
		ORDER BY tc.constraint_name, kcu.ordinal_position`,

	databases: `
		SELECT n.nspname,
		       COUNT(c.oid),
		       COALESCE(SUM(pg_total_relation_size(c.oid)), 0)::bigint
		FROM pg_namespace n
		LEFT JOIN pg_class c
		  ON c.relnamespace = n.oid
		 AND c.relkind IN ('r', 'p', 'v', 'm')
		WHERE n.nspname NOT LIKE 'pg\_temp\_%'
		  AND n.nspname NOT LIKE 'pg\_toast\_temp\_%'
		GROUP BY n.nspname
		ORDER BY n.nspname`,

	views: `
		SELECT c.relname,
		       pg_get_userbyid(c.relowner),
		       'DEFINER',
		       v.is_updatable = 'YES'
		FROM information_schema.views v
		JOIN pg_namespace n ON n.nspname = v.table_schema
		JOIN pg_class c     ON c.relname = v.table_name AND c.relnamespace = n.oid
		WHERE v.table_schema = current_schema()
		ORDER BY c.relname`,

	currentUser: `SELECT current_user`,
}
