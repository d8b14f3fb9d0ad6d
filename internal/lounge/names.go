package lounge

import "math/rand/v2"

// Display names pair a color with an animal, capitalized and space
// separated, e.g. "Crimson Otter". Names are assigned once at first join
// and never regenerated; user identity is the token id, never the name.

var nameColors = []string{
	"Amber", "Azure", "Beige", "Black", "Blue", "Bronze", "Coral",
	"Crimson", "Cyan", "Emerald", "Fuchsia", "Gold", "Gray", "Green",
	"Indigo", "Ivory", "Jade", "Lavender", "Lime", "Magenta", "Maroon",
	"Olive", "Orange", "Pink", "Plum", "Purple", "Red", "Salmon",
	"Scarlet", "Silver", "Tan", "Teal", "Turquoise", "Violet", "White",
	"Yellow",
}

var nameAnimals = []string{
	"Albatross", "Antelope", "Badger", "Bear", "Beaver", "Bison",
	"Buffalo", "Camel", "Cheetah", "Cobra", "Condor", "Cougar", "Coyote",
	"Crane", "Dolphin", "Eagle", "Falcon", "Ferret", "Fox", "Gazelle",
	"Gecko", "Heron", "Ibex", "Jaguar", "Koala", "Lemur", "Leopard",
	"Lynx", "Marmot", "Mongoose", "Moose", "Narwhal", "Ocelot", "Otter",
	"Owl", "Panda", "Panther", "Pelican", "Puffin", "Raccoon", "Raven",
	"Salamander", "Seal", "Sparrow", "Stork", "Swan", "Tiger", "Toucan",
	"Walrus", "Wolf", "Wombat", "Zebra",
}

func randomDisplayName() string {
	color := nameColors[rand.IntN(len(nameColors))]
	animal := nameAnimals[rand.IntN(len(nameAnimals))]
	return color + " " + animal
}
