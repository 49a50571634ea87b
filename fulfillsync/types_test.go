package fulfillsync

import "testing"

func TestEntitiesFromParam(t *testing.T) {
	ent, ok := entitiesFromParam("")
	if !ok || ent != DefaultEntities() {
		t.Fatalf("empty param = %+v/%v, want all entities", ent, ok)
	}
	ent, ok = entitiesFromParam(EntityAll)
	if !ok || ent != DefaultEntities() {
		t.Fatalf("all param = %+v/%v, want all entities", ent, ok)
	}
	ent, ok = entitiesFromParam(EntityProducts)
	if !ok || ent != (SyncEntities{Products: true}) {
		t.Fatalf("products param = %+v/%v", ent, ok)
	}
	if _, ok := entitiesFromParam("orders"); ok {
		t.Fatalf("unknown entity accepted")
	}
}

func TestDecodeEntitiesFallsBackToDefaults(t *testing.T) {
	if ent := DecodeEntities(nil); ent != DefaultEntities() {
		t.Fatalf("nil settings = %+v, want defaults", ent)
	}
	if ent := DecodeEntities([]byte("{broken")); ent != DefaultEntities() {
		t.Fatalf("broken settings = %+v, want defaults", ent)
	}
	ent := DecodeEntities(EncodeEntities(SyncEntities{Warehouses: true}))
	if ent != (SyncEntities{Warehouses: true}) {
		t.Fatalf("round trip = %+v", ent)
	}
}

func TestOperationForEntity(t *testing.T) {
	cases := map[string]string{
		EntityWarehouses: OpSyncWarehouses,
		EntityLocations:  OpSyncLocations,
		EntityProducts:   OpSyncProducts,
		EntityInventory:  OpSyncInventory,
	}
	for entity, want := range cases {
		if got := operationForEntity(entity); got != want {
			t.Fatalf("operationForEntity(%s) = %s, want %s", entity, got, want)
		}
	}
}
