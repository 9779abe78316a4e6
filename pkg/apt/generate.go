package apt

//go:generate go run github.com/optomotion/aptlink/cmd/aptgen -in messages.toml -out tables_gen.go
