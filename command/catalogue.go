package command

import "sync"

// Group names of the default table.
const (
	Power       = "power"
	Memory      = "memory"
	Input       = "input"
	PictureMode = "picture_mode"
	LowLatency  = "low_latency"
	Mask        = "mask"
	Lamp        = "lamp"
	Menu        = "menu"
	Aperture    = "aperture"
	Anamorphic  = "anamorphic"
	Signal      = "signal"
	MACAddress  = "macaddr"
	ModelInfo   = "modelinfo"
	Null        = "nullcmd"
)

// Power read values.
const (
	PowerStandby   = "standby"
	PowerLampOn    = "lamp_on"
	PowerCooling   = "cooling"
	PowerReserved  = "reserved"
	PowerEmergency = "emergency"
)

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(
		mustGroup(Power, "PW",
			WithWriteValues(map[string]string{"on": "1", "off": "0"}),
			WithReadValues(map[string]string{
				PowerStandby:   "0",
				PowerLampOn:    "1",
				PowerCooling:   "2",
				PowerReserved:  "3",
				PowerEmergency: "4",
			}),
		),
		mustGroup(Memory, "INML", WithValues(map[string]string{
			"1": "0", "2": "1", "3": "2", "4": "3", "5": "4",
			"6": "5", "7": "6", "8": "7", "9": "8", "10": "9",
		})),
		mustGroup(Input, "IP", WithValues(map[string]string{"hdmi1": "6", "hdmi2": "7"})),
		mustGroup(PictureMode, "PMPM", WithValues(map[string]string{
			"film":            "00",
			"cinema":          "01",
			"natural":         "03",
			"hdr10":           "04",
			"thx":             "06",
			"frame_adapt_hdr": "0B",
			"user1":           "0C",
			"user2":           "0D",
			"user3":           "0E",
			"user4":           "0F",
			"user5":           "10",
			"user6":           "11",
			"hlg":             "14",
			"hdr10p":          "15",
			"pana_pq":         "16",
		})),
		mustGroup(LowLatency, "PMLL", WithValues(map[string]string{"on": "1", "off": "0"})),
		mustGroup(Mask, "ISMA", WithValues(map[string]string{
			"off": "2", "custom1": "0", "custom2": "1", "custom3": "3",
		})),
		mustGroup(Lamp, "PMLP", WithValues(map[string]string{"high": "1", "low": "0", "mid": "2"})),
		mustGroup(Menu, "RC73",
			WithWriteValues(map[string]string{
				"menu":  "2E",
				"down":  "02",
				"left":  "36",
				"right": "34",
				"up":    "01",
				"ok":    "2F",
				"back":  "03",
			}),
			WithAccess(WriteOnly),
		),
		mustGroup(Aperture, "PMDI", WithValues(map[string]string{"off": "0", "auto1": "1", "auto2": "2"})),
		mustGroup(Anamorphic, "INVS", WithValues(map[string]string{
			"off": "0", "a": "1", "b": "2", "c": "3", "d": "4",
		})),
		mustGroup(Signal, "SC",
			WithReadValues(map[string]string{"no_signal": "0", "active_signal": "1"}),
			WithAccess(ReadOnly),
		),
		mustGroup(MACAddress, "LSMA", WithAccess(ReadOnly)),
		mustGroup(ModelInfo, "MD", WithAccess(ReadOnly)),
		mustGroup(Null, "\x00\x00", WithAccess(WriteOnly)),
	)
	if err != nil {
		panic(err)
	}

	return t
})

// DefaultTable returns the command table for current JVC D-ILA projectors.
// The returned table is shared and must not be modified.
func DefaultTable() *Table {
	return defaultTable()
}

func mustGroup(name string, code string, opts ...GroupOption) *Group {
	g, err := NewGroup(name, code, opts...)
	if err != nil {
		panic(err)
	}

	return g
}
