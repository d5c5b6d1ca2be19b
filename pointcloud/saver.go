package pointcloud

// Savers write one converted value into its named field of the output
// point. The binding layer picks one per prototype field.

func saveCartesianX(p *Point, v float64) { p.Cartesian.X = v }
func saveCartesianY(p *Point, v float64) { p.Cartesian.Y = v }
func saveCartesianZ(p *Point, v float64) { p.Cartesian.Z = v }

func saveColorRed(p *Point, v float32)   { p.Color.Red = v }
func saveColorGreen(p *Point, v float32) { p.Color.Green = v }
func saveColorBlue(p *Point, v float32)  { p.Color.Blue = v }

func saveIntensity(p *Point, v float32) { p.Intensity = v }

func saveCartesianInvalid(p *Point, v uint8) { p.CartesianInvalid = v }

func saveRow(p *Point, v int64)    { p.Row = v }
func saveColumn(p *Point, v int64) { p.Column = v }
