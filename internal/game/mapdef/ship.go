package mapdef

// Default returns the built-in ship used when no map file is configured.
func Default() *Map {
	return &Map{
		Name: "skeld",
		Rooms: []string{
			"cafeteria", "weapons", "navigation", "o2", "shields", "communications", "storage",
			"admin", "electrical", "lower_engine", "security", "reactor", "upper_engine", "medbay",
		},
		Tasks: []TaskTemplate{
			{Name: "Swipe Card", Room: "admin", Position: Point{X: 1040, Y: 560}},
			{Name: "Fix Wiring", Room: "electrical", Position: Point{X: 620, Y: 640}},
			{Name: "Clear Asteroids", Room: "weapons", Position: Point{X: 1290, Y: 190}},
			{Name: "Chart Course", Room: "navigation", Position: Point{X: 1700, Y: 420}},
			{Name: "Prime Shields", Room: "shields", Position: Point{X: 1330, Y: 760}},
			{Name: "Submit Scan", Room: "medbay", Position: Point{X: 640, Y: 380}},
			{Name: "Align Engine", Room: "lower_engine", Position: Point{X: 250, Y: 700}},
			{Name: "Calibrate Distributor", Room: "electrical", Position: Point{X: 700, Y: 600}},
			{Name: "Start Reactor", Room: "reactor", Position: Point{X: 110, Y: 470}},
			{Name: "Clean O2 Filter", Room: "o2", Position: Point{X: 1180, Y: 420}},
		},
		MultiStep: []MultiStepTemplate{
			{
				Name:   "Divert Power",
				Lead:   TaskTemplate{Name: "Divert Power (Electrical)", Room: "electrical", Position: Point{X: 660, Y: 560}},
				Follow: TaskTemplate{Name: "Accept Power (Navigation)", Room: "navigation", Position: Point{X: 1650, Y: 460}},
			},
			{
				Name:   "Empty Garbage",
				Lead:   TaskTemplate{Name: "Empty Chute (Cafeteria)", Room: "cafeteria", Position: Point{X: 1100, Y: 120}},
				Follow: TaskTemplate{Name: "Empty Chute (Storage)", Room: "storage", Position: Point{X: 900, Y: 820}},
			},
			{
				Name:   "Fuel Engines",
				Lead:   TaskTemplate{Name: "Fill Can (Storage)", Room: "storage", Position: Point{X: 860, Y: 760}},
				Follow: TaskTemplate{Name: "Fuel Upper Engine", Room: "upper_engine", Position: Point{X: 260, Y: 230}},
			},
			{
				Name:   "Download Data",
				Lead:   TaskTemplate{Name: "Download (Communications)", Room: "communications", Position: Point{X: 1120, Y: 860}},
				Follow: TaskTemplate{Name: "Upload (Admin)", Room: "admin", Position: Point{X: 1000, Y: 600}},
			},
		},
		Panels: []PanelDef{
			{Kind: PanelReactor, Room: "reactor", Position: Point{X: 80, Y: 380}},
			{Kind: PanelReactor, Room: "reactor", Position: Point{X: 80, Y: 560}},
			{Kind: PanelLifeSupport, Room: "o2", Position: Point{X: 1220, Y: 460}},
			{Kind: PanelLifeSupport, Room: "admin", Position: Point{X: 1080, Y: 520}},
		},
		RallyPoint: Point{X: 1010, Y: 220},
	}
}
