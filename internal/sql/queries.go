package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_run.sql
var InsertRun string

//go:embed queries/delete_run.sql
var DeleteRun string

//go:embed queries/latest_run.sql
var LatestRun string
