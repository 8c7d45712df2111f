package plugin

// Hand-assembled plugin module used by the tests.
//
// allocate is a bump allocator over a global starting at 1024. handle_request
// dispatches on the method length: "name" (4) returns "fixture", "run" (3)
// returns false for an empty argument list and true otherwise, anything else
// returns null.

const (
	wasmI32 = 0x7f
	wasmI64 = 0x7e
)

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func wasmName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func section(id byte, payload []byte) []byte {
	out := append([]byte{id}, uleb(uint64(len(payload)))...)
	return append(out, payload...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func packed(ptr, length int64) []byte {
	return concat([]byte{0x42}, sleb(ptr<<32|length))
}

func funcBody(code ...[]byte) []byte {
	body := concat(append([][]byte{{0x00}}, code...)...)
	return concat(uleb(uint64(len(body))), body)
}

func dataSegment(offset int64, data string) []byte {
	return concat([]byte{0x00, 0x41}, sleb(offset), []byte{0x0b}, wasmName(data))
}

// fixtureModule returns the test plugin. Without handleRequest the module
// lacks part of the ABI.
func fixtureModule(handleRequest bool) []byte {
	types := section(1, vec(
		[]byte{0x60, 0x01, wasmI32, 0x01, wasmI32},
		[]byte{0x60, 0x01, wasmI32, 0x00},
		[]byte{0x60, 0x04, wasmI32, wasmI32, wasmI32, wasmI32, 0x01, wasmI64},
	))

	funcs := [][]byte{{0x00}, {0x01}}
	if handleRequest {
		funcs = append(funcs, []byte{0x02})
	}

	memory := section(5, vec([]byte{0x00, 0x01}))
	globals := section(6, vec(concat([]byte{wasmI32, 0x01, 0x41}, sleb(1024), []byte{0x0b})))

	exports := [][]byte{
		concat(wasmName("memory"), []byte{0x02, 0x00}),
		concat(wasmName("allocate"), []byte{0x00, 0x00}),
		concat(wasmName("deallocate"), []byte{0x00, 0x01}),
	}
	if handleRequest {
		exports = append(exports, concat(wasmName("handle_request"), []byte{0x00, 0x02}))
	}

	allocate := funcBody([]byte{
		0x23, 0x00, // global.get 0
		0x23, 0x00, // global.get 0
		0x20, 0x00, // local.get 0
		0x6a,       // i32.add
		0x24, 0x00, // global.set 0
		0x0b,
	})
	deallocate := funcBody([]byte{0x0b})
	bodies := [][]byte{allocate, deallocate}

	if handleRequest {
		bodies = append(bodies, funcBody(
			[]byte{0x20, 0x01, 0x41, 0x04, 0x46, 0x04, wasmI64}, // if methodLen == 4
			packed(16, 9),
			[]byte{0x05, 0x20, 0x01, 0x41, 0x03, 0x46, 0x04, wasmI64}, // else if methodLen == 3
			[]byte{0x20, 0x03, 0x41, 0x02, 0x46, 0x04, wasmI64}, // if inputLen == 2
			packed(64, 5),
			[]byte{0x05},
			packed(32, 4),
			[]byte{0x0b, 0x05},
			packed(48, 4),
			[]byte{0x0b, 0x0b, 0x0b},
		))
	}

	data := section(11, vec(
		dataSegment(16, `"fixture"`),
		dataSegment(32, "true"),
		dataSegment(48, "null"),
		dataSegment(64, "false"),
	))

	return concat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		types,
		section(3, vec(funcs...)),
		memory,
		globals,
		section(7, vec(exports...)),
		section(10, vec(bodies...)),
		data,
	)
}
