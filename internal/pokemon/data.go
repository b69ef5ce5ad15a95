package pokemon

// evolutionMethod describes one way a species evolves when traded: either
// while holding a specific item (consumed afterwards) or when traded for a
// specific partner species.
type evolutionMethod struct {
	Item        string
	WithSpecies string
	ToSpecies   string
}

var tradeEvolutions = map[string][]evolutionMethod{
	"SPECIES_KADABRA":   {{ToSpecies: "SPECIES_ALAKAZAM"}},
	"SPECIES_MACHOKE":   {{ToSpecies: "SPECIES_MACHAMP"}},
	"SPECIES_GRAVELER":  {{ToSpecies: "SPECIES_GOLEM"}},
	"SPECIES_HAUNTER":   {{ToSpecies: "SPECIES_GENGAR"}},
	"SPECIES_BOLDORE":   {{ToSpecies: "SPECIES_GIGALITH"}},
	"SPECIES_GURDURR":   {{ToSpecies: "SPECIES_CONKELDURR"}},
	"SPECIES_PHANTUMP":  {{ToSpecies: "SPECIES_TREVENANT"}},
	"SPECIES_PUMPKABOO": {{ToSpecies: "SPECIES_GOURGEIST"}},
	"SPECIES_ONIX":      {{Item: "ITEM_METAL_COAT", ToSpecies: "SPECIES_STEELIX"}},
	"SPECIES_SCYTHER":   {{Item: "ITEM_METAL_COAT", ToSpecies: "SPECIES_SCIZOR"}},
	"SPECIES_SEADRA":    {{Item: "ITEM_DRAGON_SCALE", ToSpecies: "SPECIES_KINGDRA"}},
	"SPECIES_POLIWHIRL": {{Item: "ITEM_KINGS_ROCK", ToSpecies: "SPECIES_POLITOED"}},
	"SPECIES_SLOWPOKE":  {{Item: "ITEM_KINGS_ROCK", ToSpecies: "SPECIES_SLOWKING"}},
	"SPECIES_RHYDON":    {{Item: "ITEM_PROTECTOR", ToSpecies: "SPECIES_RHYPERIOR"}},
	"SPECIES_ELECTABUZZ": {{
		Item: "ITEM_ELECTIRIZER", ToSpecies: "SPECIES_ELECTIVIRE"}},
	"SPECIES_MAGMAR":    {{Item: "ITEM_MAGMARIZER", ToSpecies: "SPECIES_MAGMORTAR"}},
	"SPECIES_PORYGON":   {{Item: "ITEM_UPGRADE", ToSpecies: "SPECIES_PORYGON2"}},
	"SPECIES_PORYGON2":  {{Item: "ITEM_DUBIOUS_DISC", ToSpecies: "SPECIES_PORYGON_Z"}},
	"SPECIES_DUSCLOPS":  {{Item: "ITEM_REAPER_CLOTH", ToSpecies: "SPECIES_DUSKNOIR"}},
	"SPECIES_CLAMPERL": {
		{Item: "ITEM_DEEP_SEA_TOOTH", ToSpecies: "SPECIES_HUNTAIL"},
		{Item: "ITEM_DEEP_SEA_SCALE", ToSpecies: "SPECIES_GOREBYSS"},
	},
	"SPECIES_FEEBAS":     {{Item: "ITEM_PRISM_SCALE", ToSpecies: "SPECIES_MILOTIC"}},
	"SPECIES_SPRITZEE":   {{Item: "ITEM_SACHET", ToSpecies: "SPECIES_AROMATISSE"}},
	"SPECIES_SWIRLIX":    {{Item: "ITEM_WHIPPED_DREAM", ToSpecies: "SPECIES_SLURPUFF"}},
	"SPECIES_SHELMET":    {{WithSpecies: "SPECIES_KARRABLAST", ToSpecies: "SPECIES_ACCELGOR"}},
	"SPECIES_KARRABLAST": {{WithSpecies: "SPECIES_SHELMET", ToSpecies: "SPECIES_ESCAVALIER"}},
}

// baseFriendship lists species whose starting friendship differs from the
// default of 50.
var baseFriendship = map[string]int{
	"SPECIES_PICHU":     70,
	"SPECIES_PIKACHU":   70,
	"SPECIES_RAICHU":    70,
	"SPECIES_EEVEE":     70,
	"SPECIES_CLEFFA":    140,
	"SPECIES_CLEFAIRY":  140,
	"SPECIES_CHANSEY":   140,
	"SPECIES_BLISSEY":   140,
	"SPECIES_HAPPINY":   140,
	"SPECIES_TOGEPI":    70,
	"SPECIES_AZURILL":   70,
	"SPECIES_LUVDISC":   70,
	"SPECIES_ABSOL":     35,
	"SPECIES_MEWTWO":    0,
	"SPECIES_DARKRAI":   0,
	"SPECIES_GIRATINA":  0,
	"SPECIES_SNEASEL":   35,
	"SPECIES_MURKROW":   35,
	"SPECIES_HOUNDOUR":  35,
	"SPECIES_HOUNDOOM":  35,
	"SPECIES_DEINO":     35,
	"SPECIES_ZWEILOUS":  35,
	"SPECIES_HYDREIGON": 35,
}

var speciesNames = map[string]string{
	"SPECIES_KADABRA":    "Kadabra",
	"SPECIES_ALAKAZAM":   "Alakazam",
	"SPECIES_MACHOKE":    "Machoke",
	"SPECIES_MACHAMP":    "Machamp",
	"SPECIES_GRAVELER":   "Graveler",
	"SPECIES_GOLEM":      "Golem",
	"SPECIES_HAUNTER":    "Haunter",
	"SPECIES_GENGAR":     "Gengar",
	"SPECIES_ONIX":       "Onix",
	"SPECIES_STEELIX":    "Steelix",
	"SPECIES_SCYTHER":    "Scyther",
	"SPECIES_SCIZOR":     "Scizor",
	"SPECIES_SEADRA":     "Seadra",
	"SPECIES_KINGDRA":    "Kingdra",
	"SPECIES_POLIWHIRL":  "Poliwhirl",
	"SPECIES_POLITOED":   "Politoed",
	"SPECIES_SLOWPOKE":   "Slowpoke",
	"SPECIES_SLOWKING":   "Slowking",
	"SPECIES_RHYDON":     "Rhydon",
	"SPECIES_RHYPERIOR":  "Rhyperior",
	"SPECIES_ELECTABUZZ": "Electabuzz",
	"SPECIES_ELECTIVIRE": "Electivire",
	"SPECIES_MAGMAR":     "Magmar",
	"SPECIES_MAGMORTAR":  "Magmortar",
	"SPECIES_PORYGON":    "Porygon",
	"SPECIES_PORYGON2":   "Porygon2",
	"SPECIES_PORYGON_Z":  "Porygon-Z",
	"SPECIES_DUSCLOPS":   "Dusclops",
	"SPECIES_DUSKNOIR":   "Dusknoir",
	"SPECIES_CLAMPERL":   "Clamperl",
	"SPECIES_HUNTAIL":    "Huntail",
	"SPECIES_GOREBYSS":   "Gorebyss",
	"SPECIES_FEEBAS":     "Feebas",
	"SPECIES_MILOTIC":    "Milotic",
	"SPECIES_SPRITZEE":   "Spritzee",
	"SPECIES_AROMATISSE": "Aromatisse",
	"SPECIES_SWIRLIX":    "Swirlix",
	"SPECIES_SLURPUFF":   "Slurpuff",
	"SPECIES_SHELMET":    "Shelmet",
	"SPECIES_ACCELGOR":   "Accelgor",
	"SPECIES_KARRABLAST": "Karrablast",
	"SPECIES_ESCAVALIER": "Escavalier",
	"SPECIES_BOLDORE":    "Boldore",
	"SPECIES_GIGALITH":   "Gigalith",
	"SPECIES_GURDURR":    "Gurdurr",
	"SPECIES_CONKELDURR": "Conkeldurr",
	"SPECIES_PHANTUMP":   "Phantump",
	"SPECIES_TREVENANT":  "Trevenant",
	"SPECIES_PUMPKABOO":  "Pumpkaboo",
	"SPECIES_GOURGEIST":  "Gourgeist",
	"SPECIES_PIKACHU":    "Pikachu",
	"SPECIES_EEVEE":      "Eevee",
	"SPECIES_VENUSAUR":   "Venusaur",
	"SPECIES_CHANSEY":    "Chansey",
}

// GetSpeciesName returns the display name like "Venusaur" for a species id.
func GetSpeciesName(species string) string {
	if name, ok := speciesNames[species]; ok {
		return name
	}
	return "Unknown Species"
}

// bannedWords maps an upper-cased word to whether it is banned even as a
// substring (true) or only as an exact word (false).
var bannedWords = map[string]bool{
	"FUCK":  true,
	"SHIT":  true,
	"CUNT":  true,
	"BITCH": true,
	"NIGG":  true,
	"FAG":   false,
	"ASS":   false,
	"DICK":  false,
	"COCK":  false,
	"RAPE":  false,
}
