package scene

import "math"

// Animate returns the pose for a render tick: rotation accumulates
// RotationSpeed once per frame, and a positive bounce amplitude moves the
// mesh along Y as a sine of the elapsed seconds. Disabled animations keep
// the rest pose.
func Animate(c Config, frame int, elapsed float64) Transform {
	t := c.Transform
	a := c.Animation
	if !a.Enabled {
		return t
	}
	t.Rotation = t.Rotation.Add(a.RotationSpeed.Scale(float64(frame)))
	if a.BounceAmplitude > 0 {
		t.Position[1] = c.Transform.Position[1] + math.Sin(elapsed*a.BounceSpeed)*a.BounceAmplitude
	}
	return t
}
