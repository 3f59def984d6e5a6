// Package config loads rulesort configuration from CUE files.
//
// A configuration names the database, the SQL dialect, the executor cache
// size, whether the UNION optimizer runs, and the entity mapping:
//
//	database: {driver: "sqlite3", dsn: "people.db"}
//	entities: [{
//		name:  "Person"
//		table: "person"
//		fields: [{name: "id"}, {name: "name"}, {name: "age"}]
//		associations: [{name: "address", target: "Address", joinColumn: "address_id"}]
//	}, ...]
//
// Files are unified with the #Config definition in schema.cue, which
// supplies defaults and rejects unknown fields.
package config
