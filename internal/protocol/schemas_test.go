package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	lockSchema := compile("lock.schema.json")
	lockResponseSchema := compile("lock_response.schema.json")
	saveSchema := compile("save.schema.json")
	tradeSchema := compile("trade.schema.json")
	stateSchema := compile("state.schema.json")
	completeSchema := compile("complete.schema.json")

	var lock any
	_ = json.Unmarshal([]byte(`{
	  "type":"LOCK",
	  "protocol_version":"1.2",
	  "container_id":"crate_12_0_-4",
	  "pos":[12,0,-4]
	}`), &lock)
	validate(lockSchema, lock)

	var grant any
	_ = json.Unmarshal([]byte(`{
	  "type":"LOCK_RESPONSE",
	  "container_id":"crate_12_0_-4",
	  "success":true,
	  "cols":6,
	  "rows":4,
	  "tick":91250,
	  "contents":[
	    {"id":"it_9001","item_type":"plank","x":0,"y":0,"width":2,"height":4,"quality":80},
	    {"id":"it_9002","item_type":"log_fuel","x":2,"y":0,"rotation":90,"width":1,"height":2,"quality":50,"durability":40,"burn_start_tick":90000}
	  ]
	}`), &grant)
	validate(lockResponseSchema, grant)

	var denial any
	_ = json.Unmarshal([]byte(`{
	  "type":"LOCK_RESPONSE",
	  "container_id":"crate_12_0_-4",
	  "success":false,
	  "code":"E_LOCKED",
	  "reason":"container in use"
	}`), &denial)
	validate(lockResponseSchema, denial)

	var save any
	_ = json.Unmarshal([]byte(`{
	  "type":"SAVE",
	  "protocol_version":"1.2",
	  "container_id":"crate_12_0_-4",
	  "contents":[
	    {"id":"it_9001","item_type":"plank","x":0,"y":0,"width":2,"height":4,"quality":80}
	  ]
	}`), &save)
	validate(saveSchema, save)

	var buy any
	_ = json.Unmarshal([]byte(`{
	  "type":"BUY",
	  "protocol_version":"1.2",
	  "container_id":"market_3_0_7",
	  "item_type":"bread",
	  "quality":80,
	  "price":11,
	  "txn_id":"T_41_7"
	}`), &buy)
	validate(tradeSchema, buy)

	var state any
	_ = json.Unmarshal([]byte(`{
	  "type":"STATE",
	  "container_id":"market_3_0_7",
	  "tick":91300,
	  "contents":[],
	  "coins":489,
	  "stock":4,
	  "txn_id":"T_41_7"
	}`), &state)
	validate(stateSchema, state)

	var complete any
	_ = json.Unmarshal([]byte(`{
	  "type":"COOKING_COMPLETE",
	  "protocol_version":"1.2",
	  "container_id":"oven_5_0_2",
	  "item_id":"it_7710"
	}`), &complete)
	validate(completeSchema, complete)
}
