package main

// SpawnCraftMissile fires a missile along the craft's heading, starting a
// fixed distance ahead of the nose so it clears the craft's own collider.
func SpawnCraftMissile(w *World, craft EntityID, cfg MissileConfig) EntityID {
	tf := w.Transform(craft)
	dir := Heading(tf.Yaw)
	return w.Spawn(Bundle{
		Faction: FactionCraftMissile,
		Transform: Transform{
			Position: tf.Position.Add(dir.Scale(cfg.SpawnOffset)),
			Yaw:      tf.Yaw,
		},
		Moving:   true,
		Velocity: dir.Scale(cfg.Speed),
		Radius:   cfg.Radius,
		Health:   cfg.Health,
		Damage:   cfg.Damage,
	})
}

// SpawnSaucerMissile fires a missile from a saucer straight at target
func SpawnSaucerMissile(w *World, saucer EntityID, target Vec3, cfg SaucerConfig) EntityID {
	from := w.Transform(saucer).Position
	yaw := YawToward(from, target)
	dir := Heading(yaw)
	return w.Spawn(Bundle{
		Faction: FactionSaucerMissile,
		Transform: Transform{
			Position: from.Add(dir.Scale(cfg.MissileSpawnOffset)),
			Yaw:      yaw,
		},
		Moving:   true,
		Velocity: dir.Scale(cfg.MissileSpeed),
		Radius:   cfg.MissileRadius,
		Health:   cfg.MissileHealth,
		Damage:   cfg.MissileDamage,
	})
}
